package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/storage"
)

const templateSuffix = " template"

// Template is a note template stored in the vault.
type Template struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Placeholders lists the fields the template asks for.
func (t *Template) Placeholders() []string {
	return ExtractPlaceholders(t.Content)
}

// Library resolves templates by note type from the templates folder.
// Templates under the drafts folder are never resolved; they await review.
type Library struct {
	store  storage.Provider
	folder string
	drafts string
}

// NewLibrary creates a Library over folder, skipping drafts.
func NewLibrary(store storage.Provider, folder, drafts string) *Library {
	return &Library{store: store, folder: folder, drafts: drafts}
}

// List returns every non-draft template, sorted by name.
func (l *Library) List() ([]Template, error) {
	metas, err := l.store.List(l.folder)
	if err != nil {
		return nil, fmt.Errorf("templates: list: %w", err)
	}
	out := make([]Template, 0, len(metas))
	for _, m := range metas {
		if l.isDraft(m.Path) {
			continue
		}
		name := storage.Stem(m.Path)
		out = append(out, Template{Name: name, Type: typeOf(name), Path: m.Path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Types returns the note types that have a template, derived from file names.
func (l *Library) Types() ([]string, error) {
	list, err := l.List()
	if err != nil {
		return nil, err
	}
	types := make([]string, 0, len(list))
	for _, t := range list {
		types = append(types, t.Type)
	}
	return types, nil
}

// Resolve finds the template for a note type. "<Type> Template.md" and
// "<Type>.md" both match, case-insensitively.
func (l *Library) Resolve(noteType string) (*Template, error) {
	want := strings.ToLower(strings.TrimSpace(noteType))
	if want == "" {
		return nil, fmt.Errorf("templates: empty type: %w", apperr.ErrTemplateNotFound)
	}
	list, err := l.List()
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if strings.ToLower(t.Type) != want {
			continue
		}
		data, err := l.store.Read(t.Path)
		if err != nil {
			return nil, fmt.Errorf("templates: read %s: %w", t.Path, err)
		}
		t.Content = string(data)
		return &t, nil
	}
	return nil, fmt.Errorf("templates: no template for type %q: %w", noteType, apperr.ErrTemplateNotFound)
}

// DraftPath returns where a draft template for noteType is stored.
func (l *Library) DraftPath(noteType string) string {
	return storage.Join(l.drafts, storage.FileName(strings.TrimSpace(noteType)+" Template"))
}

// SaveDraft stores a draft template unless one already exists. It returns the
// draft path and whether it was written now.
func (l *Library) SaveDraft(noteType, content string) (string, bool, error) {
	p := l.DraftPath(noteType)
	exists, err := l.store.Exists(p)
	if err != nil {
		return "", false, fmt.Errorf("templates: check draft: %w", err)
	}
	if exists {
		return p, false, nil
	}
	if err := l.store.EnsureFolder(l.drafts); err != nil {
		return "", false, err
	}
	if err := l.store.Write(p, []byte(content)); err != nil {
		return "", false, fmt.Errorf("templates: write draft: %w", err)
	}
	return p, true, nil
}

func (l *Library) isDraft(p string) bool {
	return l.drafts != "" && (p == l.drafts || strings.HasPrefix(p, strings.TrimSuffix(l.drafts, "/")+"/"))
}

func typeOf(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, templateSuffix) {
		return strings.TrimSpace(name[:len(name)-len(templateSuffix)])
	}
	return name
}
