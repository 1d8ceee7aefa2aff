package internal

import (
	"io"

	"github.com/starford/ansuz/internal/llm"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	model  llm.Client
	out    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithModel replaces the Gemini client, e.g. with a stub in tests.
func WithModel(m llm.Client) Option {
	return func(a *application) {
		a.model = m
	}
}

// WithOutput sets where CLI commands print progress. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
