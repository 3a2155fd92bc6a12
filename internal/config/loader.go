package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".harmonize"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File holds the settings read from the YAML configuration file.
// Credentials never live here; they come from the environment.
type File struct {
	// Defaults apply to every provider unless overridden.
	Defaults ProviderConfig `yaml:"defaults"`

	// Providers maps provider names (spotify, deezer, ...) to
	// provider-specific overrides.
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds per-provider tweaks for the import flow.
type ProviderConfig struct {
	// ExtraWait is an additional settle delay (e.g. "2s") after
	// submitting this provider's URL to Harmony. Some providers render
	// their result tables noticeably slower than others.
	ExtraWait string `yaml:"extra_wait,omitempty"`

	// SkipCoverArt disables cover upload for this provider, for
	// services whose artwork is consistently low quality.
	SkipCoverArt bool `yaml:"skip_cover_art,omitempty"`

	// SkipISRC disables the MagicISRC step for this provider, for
	// services that never deliver ISRCs to Harmony.
	SkipISRC bool `yaml:"skip_isrc,omitempty"`
}

// ExtraWaitDuration parses ExtraWait. An empty or malformed value is
// treated as no extra wait.
func (p ProviderConfig) ExtraWaitDuration() time.Duration {
	if p.ExtraWait == "" {
		return 0
	}
	d, err := time.ParseDuration(p.ExtraWait)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist it returns ErrConfigNotFound; callers
// decide whether that is fatal based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Providers == nil {
		cf.Providers = make(map[string]ProviderConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file:
// 1. the explicit path, if given
// 2. .harmonize in the current directory
// 3. .harmonize in the user's home directory
// Returns empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// ProviderFor returns the effective settings for a provider, merging
// the defaults with any provider-specific overrides.
func (f *File) ProviderFor(name string) ProviderConfig {
	if f == nil {
		return ProviderConfig{}
	}
	merged := f.Defaults
	override, ok := f.Providers[name]
	if !ok {
		return merged
	}
	if override.ExtraWait != "" {
		merged.ExtraWait = override.ExtraWait
	}
	if override.SkipCoverArt {
		merged.SkipCoverArt = true
	}
	if override.SkipISRC {
		merged.SkipISRC = true
	}
	return merged
}

// LoadCredentials reads the MusicBrainz login from the environment,
// loading a .env file first if one is present in the working directory.
//
// Design decision: credentials stay out of the YAML file so that config
// files can be committed or shared without leaking logins. godotenv is
// best-effort; a missing .env simply means plain environment variables.
func LoadCredentials() Credentials {
	_ = godotenv.Load()

	return Credentials{
		Username: strings.TrimSpace(os.Getenv("MB_USERNAME")),
		Password: os.Getenv("MB_PASSWORD"),
	}
}
