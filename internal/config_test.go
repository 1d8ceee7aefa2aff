package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.InitialDelay != 2*time.Second {
		t.Errorf("retry defaults = %+v, want 3 attempts and 2s", cfg.Retry)
	}
}

func TestConfig_RetryBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Retry.MaxRetries = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero max_retries should fail validation")
	}
}

func TestConfig_TemperatureRange(t *testing.T) {
	cfg := NewDefaultConfig()
	hot := 3.5
	cfg.Model.PlanTemperature = &hot
	if err := cfg.Validate(); err == nil {
		t.Fatal("temperature above 2 should fail validation")
	}
	zero := 0.0
	cfg.Model.PlanTemperature = &zero
	if err := cfg.Validate(); err != nil {
		t.Fatalf("temperature 0 should be accepted: %v", err)
	}
	s := cfg.PipelineSettings()
	if s.PlanTemperature == nil || *s.PlanTemperature != 0 {
		t.Errorf("plan temperature = %v, want pointer to 0", s.PlanTemperature)
	}
	if s.NoteTemperature != nil {
		t.Error("unset note temperature should stay nil")
	}
}

func TestLoadYAML_ExpandsEnvAndOverridesDefaults(t *testing.T) {
	t.Setenv("ANSUZ_TEST_KEY", "secret-key")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: debug
  http:
    port: 9090
vault:
  path: /tmp/vault
model:
  name: gemini-2.5-pro
  api_key: ${ANSUZ_TEST_KEY}
  note_temperature: 0.4
retry:
  max_retries: 5
  initial_delay: 500ms
generation:
  structural_types: [fundamental]
  overwrite: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.APIKey != "secret-key" {
		t.Errorf("api key = %q, want %q", cfg.Model.APIKey, "secret-key")
	}
	if cfg.Retry.InitialDelay != 500*time.Millisecond || cfg.Retry.MaxRetries != 5 {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Folders.Notes != "Notes" {
		t.Errorf("folders.notes = %q, want default %q", cfg.Folders.Notes, "Notes")
	}
	s := cfg.PipelineSettings()
	if !s.Overwrite || len(s.StructuralTypes) != 1 || s.NoteTemperature == nil {
		t.Errorf("pipeline settings = %+v", s)
	}
}
