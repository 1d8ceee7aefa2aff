// Package pipeline drives the two phases of the assistant: turning a source
// note into a plan, and turning a plan's checklist into notes.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/retry"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/templates"
)

// Folders are the vault locations the pipeline reads and writes.
type Folders struct {
	Plans          string
	Notes          string
	Templates      string
	Drafts         string
	HierarchyIndex string // file path, not a folder
}

// Settings is the immutable configuration of a Pipeline.
type Settings struct {
	Folders Folders
	// Nil temperatures leave the model default in place.
	PlanTemperature *float32
	NoteTemperature *float32
	StructuralTypes []string
	DraftTemplates  bool
	Overwrite       bool
}

// Reporter receives human-readable progress messages. Report must not block.
type Reporter interface {
	Report(msg string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(msg string)

// Report calls f(msg).
func (f ReporterFunc) Report(msg string) { f(msg) }

// Discard drops every progress message.
var Discard Reporter = ReporterFunc(func(string) {})

// TitleSource lists titles of notes already in the vault.
type TitleSource interface {
	Titles(limit int) ([]string, error)
}

// RunRecorder persists per-run outcomes.
type RunRecorder interface {
	RecordRun(r models.RunRecord) error
}

// Pipeline orchestrates plan creation and note generation. Calls are
// sequential; a Pipeline is not meant to run two operations at once.
type Pipeline struct {
	store    storage.Provider
	model    llm.Client
	caller   *retry.Caller
	library  *templates.Library
	settings Settings

	titles TitleSource
	runs   RunRecorder
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTitles supplies existing note titles for plan prompts.
func WithTitles(src TitleSource) Option {
	return func(p *Pipeline) { p.titles = src }
}

// WithRunLog records every plan and item outcome.
func WithRunLog(r RunRecorder) Option {
	return func(p *Pipeline) { p.runs = r }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDs overrides run ID generation.
func WithIDs(fn func() string) Option {
	return func(p *Pipeline) { p.newID = fn }
}

// New creates a Pipeline.
func New(store storage.Provider, model llm.Client, caller *retry.Caller, settings Settings, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		model:    model,
		caller:   caller,
		library:  templates.NewLibrary(store, settings.Folders.Templates, settings.Folders.Drafts),
		settings: settings,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Library exposes the template library the pipeline resolves against.
func (p *Pipeline) Library() *templates.Library {
	return p.library
}

// generate runs one model call under the retry policy.
func (p *Pipeline) generate(ctx context.Context, rep Reporter, prompt string, temp *float32) (string, error) {
	req := llm.Request{Prompt: prompt, Temperature: temp}
	return retry.Do(ctx, p.caller, rep.Report, func(ctx context.Context) (string, error) {
		return p.model.Generate(ctx, req)
	})
}

func (p *Pipeline) record(r models.RunRecord) {
	if p.runs == nil {
		return
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = p.now()
	}
	if err := p.runs.RecordRun(r); err != nil {
		p.logger.Warn("pipeline: record run failed",
			slog.String("run_id", r.RunID),
			slog.String("error", err.Error()))
	}
}

func (p *Pipeline) isStructural(noteType string) bool {
	for _, t := range p.settings.StructuralTypes {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(noteType)) {
			return true
		}
	}
	return false
}

func reporterOrDiscard(rep Reporter) Reporter {
	if rep == nil {
		return Discard
	}
	return rep
}
