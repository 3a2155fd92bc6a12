package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	t.Parallel()

	// Resolves to the ldflags value, the module version, or "(devel)";
	// never empty.
	if v := getVersion(); v == "" {
		t.Error("getVersion() returned empty string")
	}
}

func TestGetCommit(t *testing.T) {
	t.Parallel()

	c := getCommit()
	if c == "" {
		t.Error("getCommit() returned empty string")
	}
	if len(c) > 7 && c != "unknown" && commit == "" {
		t.Errorf("embedded revision should be shortened to 7 characters, got %q", c)
	}
}

func TestGetDate(t *testing.T) {
	t.Parallel()

	if d := getDate(); d == "" {
		t.Error("getDate() returned empty string")
	}
}

func TestBuildSetting(t *testing.T) {
	t.Parallel()

	// Test binaries carry build info but no guaranteed keys; a key that
	// cannot exist must report absence rather than an empty hit.
	if v, ok := buildSetting("no.such.key"); ok {
		t.Errorf("expected miss for unknown key, got %q", v)
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected Short to be non-empty")
		}
	})

	t.Run("command prints a single summary line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := strings.TrimSpace(buf.String())
		if !strings.HasPrefix(output, "harmonize ") {
			t.Errorf("expected output to start with 'harmonize ', got %q", output)
		}
		if !strings.Contains(output, "commit ") || !strings.Contains(output, "built ") {
			t.Errorf("expected commit and build date in output, got %q", output)
		}
		if strings.Count(output, "\n") != 0 {
			t.Errorf("expected a single line, got %q", output)
		}
	})
}
