package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/plan"
	"github.com/starford/ansuz/internal/prompt"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/templates"
)

// Placeholders filled locally and never requested from the model.
const (
	FieldTitle    = "title"
	FieldType     = "type"
	FieldParent   = "parent"
	FieldChildren = "children"
	FieldDate     = "date"
)

var localFields = map[string]struct{}{
	FieldTitle: {}, FieldType: {}, FieldParent: {}, FieldChildren: {}, FieldDate: {},
}

// ItemFailure names a checklist item that could not be generated.
type ItemFailure struct {
	Title string `json:"title"`
	Error string `json:"error"`
}

// Summary is the outcome of a generation batch.
type Summary struct {
	RunID     string        `json:"run_id"`
	PlanPath  string        `json:"plan_path"`
	Source    string        `json:"source"` // "sidecar" or "markdown"
	Succeeded []string      `json:"succeeded"`
	Skipped   []string      `json:"skipped"`
	Failed    []ItemFailure `json:"failed"`
	Indexed   []string      `json:"indexed,omitempty"`
}

// String renders the one-line tally shown to users.
func (s *Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d skipped, %d failed",
		len(s.Succeeded), len(s.Skipped), len(s.Failed))
}

// Checklist sources.
const (
	SourceSidecar  = "sidecar"
	SourceMarkdown = "markdown"
)

// GenerateNotes creates one note per checklist item of the plan at planPath.
// Items are processed in order, one at a time. A failing item is recorded and
// skipped; the batch continues. Only cancellation of ctx stops the batch early,
// in which case the partial summary is returned together with ctx.Err().
func (p *Pipeline) GenerateNotes(ctx context.Context, planPath string, rep Reporter) (*Summary, error) {
	rep = reporterOrDiscard(rep)
	runID := p.newID()
	log := p.logger.With(slog.String("run_id", runID), slog.String("plan", planPath))

	data, err := p.store.Read(planPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read plan: %w", err)
	}
	items, topic, source := p.loadChecklist(log, planPath, data)
	if len(items) == 0 {
		return nil, fmt.Errorf("pipeline: %s: %w", planPath, apperr.ErrEmptyChecklist)
	}
	log.Debug("pipeline: checklist loaded", slog.String("source", source), slog.Int("items", len(items)))

	sum := &Summary{
		RunID:     runID,
		PlanPath:  planPath,
		Source:    source,
		Succeeded: []string{},
		Skipped:   []string{},
		Failed:    []ItemFailure{},
	}
	if err := p.store.EnsureFolder(p.settings.Folders.Notes); err != nil {
		return nil, err
	}

	var structural []plan.ChecklistItem
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rep.Report(fmt.Sprintf("Generating note %d of %d: %s", i+1, len(items), it.Title))
		ilog := log.With(slog.String("item", it.Title))
		notePath := storage.Join(p.settings.Folders.Notes, storage.FileName(it.Title))
		rec := models.RunRecord{RunID: runID, Kind: models.RunKindItem, PlanPath: planPath, Title: it.Title, NotePath: notePath}

		if !p.settings.Overwrite && p.exists(notePath) {
			ilog.Debug("pipeline: note exists, skipping", slog.String("path", notePath))
			rep.Report(fmt.Sprintf("Skipped %q: %s already exists.", it.Title, notePath))
			sum.Skipped = append(sum.Skipped, it.Title)
			rec.Status = models.StatusSkipped
			p.record(rec)
			continue
		}

		content, err := p.generateItem(ctx, ilog, rep, it, items, topic)
		if err == nil {
			ilog.Debug("pipeline: persisting note", slog.String("path", notePath))
			err = p.store.Write(notePath, []byte(content))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			ilog.Warn("pipeline: item failed", slog.String("error", err.Error()))
			rep.Report(fmt.Sprintf("Failed %q: %v", it.Title, err))
			sum.Failed = append(sum.Failed, ItemFailure{Title: it.Title, Error: err.Error()})
			rec.Status = models.StatusFailed
			rec.Error = err.Error()
			rec.NotePath = ""
			p.record(rec)
			continue
		}

		sum.Succeeded = append(sum.Succeeded, it.Title)
		rec.Status = models.StatusSucceeded
		p.record(rec)
		if p.isStructural(it.Type) {
			structural = append(structural, it)
		}
	}

	if len(structural) > 0 {
		log.Debug("pipeline: updating hierarchy index", slog.Int("entries", len(structural)))
		added, err := p.appendHierarchy(structural)
		if err != nil {
			log.Warn("pipeline: hierarchy index update failed", slog.String("error", err.Error()))
			rep.Report(fmt.Sprintf("Could not update the hierarchy index: %v", err))
		}
		sum.Indexed = added
	}

	log.Info("pipeline: generation done",
		slog.Int("succeeded", len(sum.Succeeded)),
		slog.Int("skipped", len(sum.Skipped)),
		slog.Int("failed", len(sum.Failed)))
	rep.Report("Done: " + sum.String() + ".")
	return sum, nil
}

// generateItem resolves the item's template, asks the model for the fields
// it cannot fill locally and returns the populated note.
func (p *Pipeline) generateItem(ctx context.Context, log *slog.Logger, rep Reporter, it plan.ChecklistItem, all []plan.ChecklistItem, topic string) (string, error) {
	log.Debug("pipeline: resolving template", slog.String("type", it.Type))
	tmpl, err := p.library.Resolve(it.Type)
	if err != nil {
		return "", err
	}

	data := p.localValues(it)
	var requested []string
	for _, name := range tmpl.Placeholders() {
		if _, ok := localFields[strings.ToLower(name)]; !ok {
			requested = append(requested, name)
		}
	}

	if len(requested) > 0 {
		in := prompt.FieldsInput{
			Item:     it,
			Children: it.Children,
			Fields:   requested,
			Template: tmpl.Content,
			Topic:    topic,
		}
		if it.Parent != "" {
			if parent, ok := plan.Find(all, it.Parent); ok {
				in.Parent = &parent
			}
		}

		log.Debug("pipeline: requesting fields", slog.Int("fields", len(requested)))
		raw, err := p.generate(ctx, rep, prompt.Fields(in), p.settings.NoteTemperature)
		if err != nil {
			return "", err
		}
		log.Debug("pipeline: parsing fields")
		fields, err := plan.ParseFields(raw)
		if err != nil {
			return "", err
		}
		for k, v := range fields {
			if _, local := localFields[strings.ToLower(k)]; local {
				continue
			}
			data[k] = v
		}
	}

	log.Debug("pipeline: populating template", slog.String("template", tmpl.Name))
	return templates.FillTemplate(tmpl.Content, data), nil
}

func (p *Pipeline) localValues(it plan.ChecklistItem) map[string]any {
	data := map[string]any{
		FieldTitle: it.Title,
		FieldType:  it.Type,
		FieldDate:  p.now().Format("2006-01-02"),
	}
	if it.Parent != "" {
		data[FieldParent] = plan.Wikilink(it.Parent)
	} else {
		data[FieldParent] = ""
	}
	children := make([]string, 0, len(it.Children))
	for _, c := range it.Children {
		if c = plan.Unlink(c); c != "" {
			children = append(children, plan.Wikilink(c))
		}
	}
	data[FieldChildren] = children
	return data
}

// loadChecklist prefers the sidecar while the note is unedited; otherwise the
// markdown is re-parsed so the user's edits win.
func (p *Pipeline) loadChecklist(log *slog.Logger, planPath string, note []byte) ([]plan.ChecklistItem, string, string) {
	if raw, err := p.store.Read(plan.SidecarPath(planPath)); err == nil {
		sc, err := plan.DecodeSidecar(raw)
		switch {
		case err != nil:
			log.Warn("pipeline: sidecar unreadable", slog.String("error", err.Error()))
		case sc.Current(note):
			return sc.Items, sc.Document.PlanDetails.MainTopic, SourceSidecar
		default:
			log.Debug("pipeline: plan edited since sidecar was written")
		}
	}

	var topic string
	if res, err := parser.Parse(note); err == nil {
		topic = strings.TrimSuffix(res.Title, " Plan")
	}
	return plan.ExtractChecklist(string(note)), topic, SourceMarkdown
}

func (p *Pipeline) exists(path string) bool {
	ok, err := p.store.Exists(path)
	return err == nil && ok
}
