package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/plan"
	"github.com/starford/ansuz/internal/prompt"
	"github.com/starford/ansuz/internal/storage"
)

// contextTitleLimit bounds the titles fetched for a plan prompt.
const contextTitleLimit = 500

var markdownFenceRe = regexp.MustCompile("(?s)```(?:markdown|md)?[ \\t]*\\n(.*?)```")

// PlanResult describes a persisted plan.
type PlanResult struct {
	RunID       string         `json:"run_id"`
	Path        string         `json:"path"`
	SidecarPath string         `json:"sidecar_path"`
	Title       string         `json:"title"`
	Template    string         `json:"template,omitempty"`
	DraftPath   string         `json:"draft_path,omitempty"`
	Items       int            `json:"items"`
	Document    *plan.Document `json:"document"`
}

// CreatePlan reads sourcePath, asks the model for a plan and writes the plan
// note plus its sidecar. A response that cannot be parsed aborts the
// operation before anything is written; the returned error carries the raw
// response.
func (p *Pipeline) CreatePlan(ctx context.Context, sourcePath string, rep Reporter) (*PlanResult, error) {
	rep = reporterOrDiscard(rep)
	runID := p.newID()
	log := p.logger.With(slog.String("run_id", runID), slog.String("source", sourcePath))

	log.Debug("pipeline: reading source")
	data, err := p.store.Read(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read source: %w", err)
	}
	src, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse source: %w", err)
	}
	sourceTitle := src.TitleOr(sourcePath)

	types, err := p.library.Types()
	if err != nil {
		return nil, err
	}
	in := prompt.PlanInput{
		SourceTitle:    sourceTitle,
		SourceBody:     src.Body,
		ExistingTitles: p.existingTitles(log, sourceTitle),
		HierarchyIndex: p.readHierarchyIndex(log),
		TemplateTypes:  types,
	}

	log.Debug("pipeline: requesting plan")
	rep.Report(fmt.Sprintf("Requesting plan for %q...", sourceTitle))
	raw, err := p.generate(ctx, rep, prompt.Plan(in), p.settings.PlanTemperature)
	if err != nil {
		p.record(models.RunRecord{RunID: runID, Kind: models.RunKindPlan, PlanPath: sourcePath,
			Title: sourceTitle, Status: models.StatusFailed, Error: err.Error()})
		return nil, fmt.Errorf("pipeline: request plan: %w", err)
	}

	log.Debug("pipeline: parsing plan")
	doc, err := plan.Parse(raw)
	if err != nil {
		log.Error("pipeline: plan response unparseable",
			slog.Int("raw_len", len(raw)),
			slog.String("error", err.Error()))
		p.record(models.RunRecord{RunID: runID, Kind: models.RunKindPlan, PlanPath: sourcePath,
			Title: sourceTitle, Status: models.StatusFailed, Error: err.Error()})
		return nil, fmt.Errorf("pipeline: parse plan: %w", err)
	}

	log.Debug("pipeline: matching template", slog.String("type", doc.NoteIdentity.SuggestedType))
	meta := plan.RenderMeta{Source: sourcePath, CreatedAt: p.now()}
	tmpl, err := p.library.Resolve(doc.NoteIdentity.SuggestedType)
	switch {
	case err == nil:
		meta.Template = tmpl.Name
	case errors.Is(err, apperr.ErrTemplateNotFound):
		if p.settings.DraftTemplates && doc.NoteIdentity.SuggestedType != plan.UnknownType {
			meta.Draft = p.draftTemplate(ctx, log, rep, doc.NoteIdentity.SuggestedType)
		}
	default:
		return nil, fmt.Errorf("pipeline: match template: %w", err)
	}

	log.Debug("pipeline: assembling plan document")
	rendered := []byte(plan.Render(doc, meta, sourceTitle))
	title := plan.Title(doc, sourceTitle)
	if err := p.store.EnsureFolder(p.settings.Folders.Plans); err != nil {
		return nil, err
	}
	planPath, err := p.planPath(title)
	if err != nil {
		return nil, err
	}
	sidecar, err := plan.NewSidecar(doc, sourcePath, rendered).Encode()
	if err != nil {
		return nil, err
	}
	if err := p.store.Write(planPath, rendered); err != nil {
		return nil, fmt.Errorf("pipeline: write plan: %w", err)
	}
	sidecarPath := plan.SidecarPath(planPath)
	if err := p.store.Write(sidecarPath, sidecar); err != nil {
		return nil, fmt.Errorf("pipeline: write sidecar: %w", err)
	}

	log.Info("pipeline: plan persisted",
		slog.String("path", planPath),
		slog.Int("items", len(doc.ChecklistNotes)))
	p.record(models.RunRecord{RunID: runID, Kind: models.RunKindPlan, PlanPath: planPath,
		Title: title, Status: models.StatusSucceeded, NotePath: planPath})
	rep.Report(fmt.Sprintf("Plan saved to %s with %d checklist items.", planPath, len(doc.ChecklistNotes)))

	return &PlanResult{
		RunID:       runID,
		Path:        planPath,
		SidecarPath: sidecarPath,
		Title:       title,
		Template:    meta.Template,
		DraftPath:   meta.Draft,
		Items:       len(doc.ChecklistNotes),
		Document:    doc,
	}, nil
}

// planPath picks the plan note location. Existing plans are kept unless
// overwrite is on; a numeric suffix makes the name unique.
func (p *Pipeline) planPath(title string) (string, error) {
	base := storage.FileName(title)
	candidate := storage.Join(p.settings.Folders.Plans, base)
	if p.settings.Overwrite {
		return candidate, nil
	}
	stem := strings.TrimSuffix(base, ".md")
	for n := 2; ; n++ {
		exists, err := p.store.Exists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = storage.Join(p.settings.Folders.Plans, fmt.Sprintf("%s %d.md", stem, n))
	}
}

// draftTemplate asks the model for a template for noteType and saves it under
// the drafts folder. Failures are reported but never fail the plan.
func (p *Pipeline) draftTemplate(ctx context.Context, log *slog.Logger, rep Reporter, noteType string) string {
	log.Debug("pipeline: drafting template", slog.String("type", noteType))
	if path := p.library.DraftPath(noteType); p.exists(path) {
		return path
	}
	rep.Report(fmt.Sprintf("No template for type %q, drafting one...", noteType))

	var example string
	if types, err := p.library.Types(); err == nil && len(types) > 0 {
		if t, err := p.library.Resolve(types[0]); err == nil {
			example = t.Content
		}
	}
	raw, err := p.generate(ctx, rep, prompt.DraftTemplate(noteType, example), p.settings.NoteTemperature)
	if err != nil {
		log.Warn("pipeline: draft template failed", slog.String("type", noteType), slog.String("error", err.Error()))
		rep.Report(fmt.Sprintf("Could not draft a template for %q: %v", noteType, err))
		return ""
	}
	content := strings.TrimSpace(raw)
	if m := markdownFenceRe.FindStringSubmatch(raw); m != nil {
		content = strings.TrimSpace(m[1])
	}
	if content == "" {
		log.Warn("pipeline: draft template empty", slog.String("type", noteType))
		return ""
	}
	path, created, err := p.library.SaveDraft(noteType, content+"\n")
	if err != nil {
		log.Warn("pipeline: save draft failed", slog.String("type", noteType), slog.String("error", err.Error()))
		return ""
	}
	if created {
		rep.Report(fmt.Sprintf("Draft template saved to %s; review it and move it into the templates folder.", path))
	}
	return path
}

func (p *Pipeline) existingTitles(log *slog.Logger, exclude string) []string {
	if p.titles == nil {
		return nil
	}
	titles, err := p.titles.Titles(contextTitleLimit)
	if err != nil {
		log.Warn("pipeline: load titles failed", slog.String("error", err.Error()))
		return nil
	}
	out := titles[:0:0]
	for _, t := range titles {
		if !strings.EqualFold(t, exclude) {
			out = append(out, t)
		}
	}
	return out
}

func (p *Pipeline) readHierarchyIndex(log *slog.Logger) string {
	path := p.settings.Folders.HierarchyIndex
	if path == "" {
		return ""
	}
	data, err := p.store.Read(path)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			log.Warn("pipeline: read hierarchy index failed", slog.String("error", err.Error()))
		}
		return ""
	}
	_, body := parser.SplitRaw(string(data))
	return strings.TrimSpace(body)
}
