// Package plan models AI-generated plans: parsing model output, rendering the
// plan note, and recovering its checklist afterwards.
package plan

import "strings"

// UnknownType is used when the model did not suggest a note type.
const UnknownType = "Unknown"

// Document is a parsed plan response. Every field is optional in the input.
type Document struct {
	NoteIdentity         NoteIdentity    `json:"noteIdentity"`
	PlanDetails          PlanDetails     `json:"planDetails"`
	OverallFeedback      string          `json:"overallFeedback"`
	ReviewPoints         []ReviewPoint   `json:"reviewPoints"`
	MissingConnections   []string        `json:"missingConnections"`
	ProvocativeQuestions []string        `json:"provocativeQuestions"`
	NoteCategories       []NoteCategory  `json:"noteCategories"`
	ChecklistNotes       []ChecklistItem `json:"checklistNotes"`
}

// NoteIdentity is the model's classification of the source note.
type NoteIdentity struct {
	SuggestedType string `json:"suggestedType"`
	Justification string `json:"justification"`
}

// PlanDetails names the plan.
type PlanDetails struct {
	MainTopic    string `json:"mainTopic"`
	UniquePhrase string `json:"uniquePhrase"`
}

// ReviewPoint is a suggestion about one concept of the source.
type ReviewPoint struct {
	Concept    string `json:"concept"`
	Suggestion string `json:"suggestion"`
}

// NoteCategory groups proposed notes under a heading.
type NoteCategory struct {
	CategoryTitle       string         `json:"categoryTitle"`
	CategoryDescription string         `json:"categoryDescription"`
	Notes               []CategoryNote `json:"notes"`
}

// CategoryNote is a proposed note inside a category.
type CategoryNote struct {
	Title string `json:"title"`
}

// ChecklistItem is one note the plan asks to generate. Parent and Children
// refer to other items by title; dangling references are allowed.
type ChecklistItem struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Parent      string   `json:"parent,omitempty"`
	Children    []string `json:"children,omitempty"`
}

// normalize applies the fallbacks for a partially populated document.
func (d *Document) normalize() {
	d.NoteIdentity.SuggestedType = strings.TrimSpace(d.NoteIdentity.SuggestedType)
	if d.NoteIdentity.SuggestedType == "" {
		d.NoteIdentity.SuggestedType = UnknownType
	}
	d.PlanDetails.MainTopic = strings.TrimSpace(d.PlanDetails.MainTopic)
	d.ReviewPoints = nonNil(d.ReviewPoints)
	d.MissingConnections = nonNil(d.MissingConnections)
	d.ProvocativeQuestions = nonNil(d.ProvocativeQuestions)
	d.NoteCategories = nonNil(d.NoteCategories)

	// Titles are unique within a plan: keep the first occurrence.
	seen := make(map[string]struct{}, len(d.ChecklistNotes))
	items := make([]ChecklistItem, 0, len(d.ChecklistNotes))
	for _, it := range d.ChecklistNotes {
		it.Title = strings.TrimSpace(it.Title)
		it.Type = strings.TrimSpace(it.Type)
		it.Parent = strings.TrimSpace(it.Parent)
		if it.Title == "" {
			continue
		}
		key := strings.ToLower(it.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if it.Type == "" {
			it.Type = UnknownType
		}
		items = append(items, it)
	}
	d.ChecklistNotes = items
}

// Find returns the item with the given title (case-insensitive).
func Find(items []ChecklistItem, title string) (ChecklistItem, bool) {
	for _, it := range items {
		if strings.EqualFold(it.Title, title) {
			return it, true
		}
	}
	return ChecklistItem{}, false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
