// Package noteservice is the facade the HTTP, MCP and CLI surfaces share. It
// runs pipeline operations one at a time and keeps the index current.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/plan"
	"github.com/starford/ansuz/internal/storage"
)

// Catalogue is the index the service reads and refreshes.
type Catalogue interface {
	index.NoteIndex
	index.RunLog
}

// Progress receives pipeline messages and run outcomes, e.g. the SSE broker.
type Progress interface {
	Report(msg string)
	RunFinished(result any)
}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string               `json:"path"`
	Title       string               `json:"title"`
	Content     string               `json:"content"`
	Checksum    string               `json:"checksum"`
	Tags        []string             `json:"tags"`
	Frontmatter map[string]any       `json:"frontmatter,omitempty"`
	Checklist   []plan.ChecklistItem `json:"checklist,omitempty"`
}

// TemplateInfo describes one usable template.
type TemplateInfo struct {
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	Type         string   `json:"type"`
	Placeholders []string `json:"placeholders"`
}

// Service coordinates the pipeline, storage and index.
type Service struct {
	store    storage.Provider
	db       Catalogue
	pipe     *pipeline.Pipeline
	progress Progress
	logger   *slog.Logger
	sem      chan struct{}
}

// NewService creates a new note service. progress may be nil.
func NewService(store storage.Provider, db Catalogue, pipe *pipeline.Pipeline, progress Progress, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		db:       db,
		pipe:     pipe,
		progress: progress,
		logger:   logger,
		sem:      make(chan struct{}, 1),
	}
}

// acquire waits for the single pipeline slot.
func (s *Service) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) release() { <-s.sem }

// CreatePlan runs plan creation for sourcePath.
func (s *Service) CreatePlan(ctx context.Context, sourcePath string, rep pipeline.Reporter) (*pipeline.PlanResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	res, err := s.pipe.CreatePlan(ctx, sourcePath, s.reporter(rep))
	if err != nil {
		return nil, err
	}
	s.refresh()
	if s.progress != nil {
		s.progress.RunFinished(res)
	}
	return res, nil
}

// GenerateNotes runs note generation for the plan at planPath.
func (s *Service) GenerateNotes(ctx context.Context, planPath string, rep pipeline.Reporter) (*pipeline.Summary, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	sum, err := s.pipe.GenerateNotes(ctx, planPath, s.reporter(rep))
	if sum != nil {
		s.refresh()
		if s.progress != nil {
			s.progress.RunFinished(sum)
		}
	}
	return sum, err
}

// Templates lists the resolvable templates with their placeholders.
func (s *Service) Templates(_ context.Context) ([]TemplateInfo, error) {
	lib := s.pipe.Library()
	list, err := lib.List()
	if err != nil {
		return nil, err
	}
	out := make([]TemplateInfo, 0, len(list))
	for _, t := range list {
		data, err := s.store.Read(t.Path)
		if err != nil {
			return nil, fmt.Errorf("noteservice: read template %s: %w", t.Path, err)
		}
		t.Content = string(data)
		info := TemplateInfo{Name: t.Name, Path: t.Path, Type: t.Type, Placeholders: t.Placeholders()}
		if info.Placeholders == nil {
			info.Placeholders = []string{}
		}
		out = append(out, info)
	}
	return out, nil
}

// Search delegates to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []index.SearchResult{}, nil
	}
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Runs returns the most recent run log entries.
func (s *Service) Runs(_ context.Context, limit int) ([]models.RunRecord, error) {
	runs, err := s.db.Runs(limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(runs), nil
}

// ReadNote reads and parses a vault note. Plan notes include their checklist
// as the generator would see it.
func (s *Service) ReadNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	d := &NoteDetail{
		Path:        path,
		Title:       res.TitleOr(path),
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
	}
	if t, _ := res.Frontmatter["type"].(string); t == "plan" {
		d.Checklist = plan.ExtractChecklist(string(data))
	}
	return d, nil
}

// refresh re-syncs the index after a run so new notes are searchable and
// feed the next plan prompt without waiting for the watcher.
func (s *Service) refresh() {
	start := time.Now()
	if err := index.Sync(s.db, s.store, s.logger); err != nil {
		s.logger.Warn("noteservice: refresh index failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("noteservice: index refreshed", slog.Duration("took", time.Since(start)))
}

func (s *Service) reporter(rep pipeline.Reporter) pipeline.Reporter {
	switch {
	case rep == nil && s.progress == nil:
		return pipeline.Discard
	case rep == nil:
		return s.progress
	case s.progress == nil:
		return rep
	}
	return pipeline.ReporterFunc(func(msg string) {
		rep.Report(msg)
		s.progress.Report(msg)
	})
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
