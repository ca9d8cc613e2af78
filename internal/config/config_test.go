package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{name: "valid duration", value: "45s", def: 30 * time.Second, want: 45 * time.Second},
		{name: "invalid falls back", value: "nope", def: 30 * time.Second, want: 30 * time.Second},
		{name: "unset falls back", value: "", def: 30 * time.Second, want: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DURATION", tt.value)
			} else {
				_ = os.Unsetenv("TEST_DURATION")
			}
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.want {
				t.Errorf("mustDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JUBOT_TOKEN", "test-token")
	_ = os.Unsetenv("JUBOT_CONFIG_FILE")

	cfg := Load()

	if cfg.Token != "test-token" {
		t.Errorf("Token = %q, want %q", cfg.Token, "test-token")
	}
	if cfg.Prefix != ">>" {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, ">>")
	}
	if cfg.SelectTimeout != 30*time.Second {
		t.Errorf("SelectTimeout = %v, want 30s", cfg.SelectTimeout)
	}
	if cfg.SearchLimit != 5 {
		t.Errorf("SearchLimit = %d, want 5", cfg.SearchLimit)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jubot.yaml")
	content := []byte("prefix: '!!'\nselect_timeout: 10s\nsearch_limit: 3\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("JUBOT_TOKEN", "test-token")
	t.Setenv("JUBOT_CONFIG_FILE", path)
	t.Setenv("JUBOT_SELECT_TIMEOUT", "20s")

	cfg := Load()

	// From the file.
	if cfg.Prefix != "!!" {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, "!!")
	}
	if cfg.SearchLimit != 3 {
		t.Errorf("SearchLimit = %d, want 3", cfg.SearchLimit)
	}
	// Env wins over the file.
	if cfg.SelectTimeout != 20*time.Second {
		t.Errorf("SelectTimeout = %v, want 20s", cfg.SelectTimeout)
	}
}

func TestLoadBadFilePanics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jubot.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("JUBOT_TOKEN", "test-token")
	t.Setenv("JUBOT_CONFIG_FILE", path)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked on a bad config file")
		}
	}()
	_ = Load()
}
