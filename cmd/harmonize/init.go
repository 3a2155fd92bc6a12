package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/harmonize.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = ".harmonize"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new harmonize configuration file",
		Long: `Init creates a new .harmonize configuration file in the current directory.

The generated file includes:
- A defaults section applied to every provider
- Commented examples for per-provider overrides
- Documentation for all available options

Credentials never go in this file; set MB_USERNAME and MB_PASSWORD in
the environment or a .env file instead.

Examples:
  # Create .harmonize in current directory
  harmonize init

  # Create config file at a specific path
  harmonize init -o myconfig.yaml

  # Force overwrite existing file
  harmonize init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/harmonize.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to configure per-provider settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Extra settle delays for slow providers")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Skipping cover art or ISRC submission per provider")
	fmt.Fprintln(cmd.OutOrStdout(), "\nCredentials go in the environment (MB_USERNAME / MB_PASSWORD), not here.")

	return nil
}
