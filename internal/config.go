package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/retry"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration. It is read once at start-up
// and never mutated afterwards; components receive the sections they need.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Vault      VaultConfig       `yaml:"vault"`
	Folders    FoldersConfig     `yaml:"folders"`
	Model      ModelConfig       `yaml:"model"`
	Retry      RetryConfig       `yaml:"retry"`
	Generation GenerationConfig  `yaml:"generation"`
	SQLite     SQLiteConfig      `yaml:"sqlite"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Vault, &c.Folders, &c.Model, &c.Retry, &c.SQLite, &c.Auth,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// FoldersConfig holds vault-relative locations used by the pipeline.
type FoldersConfig struct {
	Plans          string `yaml:"plans"`
	Notes          string `yaml:"notes"`
	Templates      string `yaml:"templates"`
	Drafts         string `yaml:"drafts"`
	HierarchyIndex string `yaml:"hierarchy_index"`
}

// Validate validates the folders configuration.
func (c *FoldersConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Plans, validation.Required),
		validation.Field(&c.Notes, validation.Required),
		validation.Field(&c.Templates, validation.Required),
		validation.Field(&c.Drafts, validation.Required),
	)
}

// ModelConfig selects the generative model.
type ModelConfig struct {
	Name            string   `yaml:"name"`
	APIKey          string   `yaml:"api_key"`
	PlanTemperature *float64 `yaml:"plan_temperature"`
	NoteTemperature *float64 `yaml:"note_temperature"`
}

// Validate validates the model configuration. The API key is checked when the
// client is built so that commands not calling the model still start.
func (c *ModelConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.PlanTemperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.NoteTemperature, validation.Min(0.0), validation.Max(2.0)),
	)
}

// RetryConfig controls the resilient model call.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// Validate validates the retry configuration.
func (c *RetryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxRetries, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.InitialDelay, validation.Required, validation.Min(time.Millisecond)),
	)
}

// Policy converts the section to a retry.Policy.
func (c *RetryConfig) Policy() retry.Policy {
	return retry.Policy{MaxRetries: c.MaxRetries, InitialDelay: c.InitialDelay}
}

// GenerationConfig tunes note generation.
type GenerationConfig struct {
	StructuralTypes []string `yaml:"structural_types"`
	DraftTemplates  bool     `yaml:"draft_templates"`
	Overwrite       bool     `yaml:"overwrite"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// PipelineSettings assembles the pipeline's view of the configuration.
func (c *Config) PipelineSettings() pipeline.Settings {
	s := pipeline.Settings{
		Folders: pipeline.Folders{
			Plans:          c.Folders.Plans,
			Notes:          c.Folders.Notes,
			Templates:      c.Folders.Templates,
			Drafts:         c.Folders.Drafts,
			HierarchyIndex: c.Folders.HierarchyIndex,
		},
		StructuralTypes: c.Generation.StructuralTypes,
		DraftTemplates:  c.Generation.DraftTemplates,
		Overwrite:       c.Generation.Overwrite,
	}
	if c.Model.PlanTemperature != nil {
		s.PlanTemperature = llm.Temperature(*c.Model.PlanTemperature)
	}
	if c.Model.NoteTemperature != nil {
		s.NoteTemperature = llm.Temperature(*c.Model.NoteTemperature)
	}
	return s
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Folders: FoldersConfig{
			Plans:          "Plans",
			Notes:          "Notes",
			Templates:      "Templates",
			Drafts:         "Templates/Drafts",
			HierarchyIndex: "Plans/Hierarchy Index.md",
		},
		Model: ModelConfig{
			Name: llm.DefaultGeminiModel,
		},
		Retry: RetryConfig{
			MaxRetries:   retry.DefaultMaxRetries,
			InitialDelay: retry.DefaultInitialDelay,
		},
		Generation: GenerationConfig{
			StructuralTypes: []string{"fundamental", "major-core"},
			DraftTemplates:  true,
		},
		SQLite: SQLiteConfig{
			Path: "./ansuz.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
