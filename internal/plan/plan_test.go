package plan

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

const samplePlan = "Here is your plan:\n```json\n" + `{
  "noteIdentity": {"suggestedType": "Core", "justification": "Defines an algorithm."},
  "planDetails": {"mainTopic": "Gradient Descent", "uniquePhrase": "downhill"},
  "overallFeedback": "Solid start.",
  "reviewPoints": [{"concept": "Loss Function", "suggestion": "Define it."}],
  "missingConnections": ["[[Loss Function]]", "Learning Rate"],
  "provocativeQuestions": ["Why not Newton's method?"],
  "noteCategories": [{"categoryTitle": "Optimization", "categoryDescription": "Methods", "notes": [{"title": "ML - Gradient Descent"}]}],
  "checklistNotes": [
    {"title": "ML - Optimization", "type": "Fundamental", "description": "Umbrella topic.", "children": ["ML - Gradient Descent"]},
    {"title": "ML - Gradient Descent", "type": "Core", "description": "An optimization algorithm that follows the negative gradient.", "parent": "ML - Optimization"},
    {"title": "ML - Gradient Descent", "type": "Core", "description": "duplicate"}
  ]
}` + "\n```\nGood luck!"

func TestParse_FencedPlan(t *testing.T) {
	doc, err := Parse(samplePlan)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.NoteIdentity.SuggestedType != "Core" {
		t.Errorf("suggestedType = %q", doc.NoteIdentity.SuggestedType)
	}
	if doc.PlanDetails.MainTopic != "Gradient Descent" {
		t.Errorf("mainTopic = %q", doc.PlanDetails.MainTopic)
	}
	if len(doc.ChecklistNotes) != 2 {
		t.Fatalf("checklist len = %d, want 2 (duplicate title dropped)", len(doc.ChecklistNotes))
	}
	if doc.ChecklistNotes[1].Parent != "ML - Optimization" {
		t.Errorf("parent = %q", doc.ChecklistNotes[1].Parent)
	}
}

func TestParse_UnfencedAndPartial(t *testing.T) {
	doc, err := Parse(`{"planDetails": {"mainTopic": "X"}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.NoteIdentity.SuggestedType != UnknownType {
		t.Errorf("suggestedType = %q, want %q", doc.NoteIdentity.SuggestedType, UnknownType)
	}
	if doc.ReviewPoints == nil || len(doc.ReviewPoints) != 0 {
		t.Errorf("reviewPoints = %#v, want empty slice", doc.ReviewPoints)
	}
	if doc.ChecklistNotes == nil {
		t.Error("checklist should be an empty slice, not nil")
	}
}

func TestParse_BareFenceStripped(t *testing.T) {
	doc, err := Parse("```\n{\"planDetails\": {\"mainTopic\": \"Y\"}}\n```")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.PlanDetails.MainTopic != "Y" {
		t.Errorf("mainTopic = %q", doc.PlanDetails.MainTopic)
	}
}

func TestParse_MalformedKeepsRaw(t *testing.T) {
	raw := "```json\n{\"noteIdentity\": {\"suggestedType\": \"Core\"\n```"
	_, err := Parse(raw)
	var me *apperr.MalformedResponseError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MalformedResponseError", err)
	}
	if me.Raw != raw {
		t.Errorf("raw not preserved verbatim: %q", me.Raw)
	}
	if !strings.Contains(err.Error(), raw) {
		t.Error("error text should include the raw response")
	}
}

func TestParse_WrongShapedOptionalFieldsFallBack(t *testing.T) {
	raw := `{
  "reviewPoints": ["Define the loss first."],
  "planDetails": "Gradient Descent",
  "missingConnections": "[[Loss Function]]",
  "checklistNotes": [{"title": "ML - Gradient Descent", "type": "Core", "description": "Steps downhill."}]
}`
	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.ChecklistNotes) != 1 || doc.ChecklistNotes[0].Title != "ML - Gradient Descent" {
		t.Errorf("checklist = %+v, want the one item kept", doc.ChecklistNotes)
	}
	if doc.ReviewPoints == nil || len(doc.ReviewPoints) != 0 {
		t.Errorf("reviewPoints = %#v, want empty slice", doc.ReviewPoints)
	}
	if doc.PlanDetails.MainTopic != "" || len(doc.MissingConnections) != 0 {
		t.Errorf("doc = %+v, want wrong-shaped fields left empty", doc)
	}
}

func TestParse_WrongShapedChecklistIsMalformed(t *testing.T) {
	for _, raw := range []string{`{"checklistNotes": "all of them"}`, `["not", "an", "object"]`, `null`} {
		if _, err := Parse(raw); !apperr.IsMalformed(err) {
			t.Errorf("Parse(%s) err = %v, want MalformedResponseError", raw, err)
		}
	}
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields("```json\n{\"summary_definition\": \"An iterative optimization...\", \"related\": [\"a\"]}\n```")
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if fields["summary_definition"] != "An iterative optimization..." {
		t.Errorf("fields = %v", fields)
	}
	if _, err := ParseFields("null"); !apperr.IsMalformed(err) {
		t.Errorf("null should be malformed, got %v", err)
	}
	if _, err := ParseFields("[1,2]"); !apperr.IsMalformed(err) {
		t.Errorf("array should be malformed, got %v", err)
	}
}

func TestRenderExtractRoundTrip(t *testing.T) {
	doc, err := Parse(samplePlan)
	if err != nil {
		t.Fatal(err)
	}
	md := Render(doc, RenderMeta{Source: "Inbox/GD.md", Template: "Core Template", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}, "GD")
	got := ExtractChecklist(md)
	if len(got) != len(doc.ChecklistNotes) {
		t.Fatalf("extracted %d items, want %d\n%s", len(got), len(doc.ChecklistNotes), md)
	}
	for i, want := range doc.ChecklistNotes {
		g := got[i]
		if g.Title != want.Title || g.Type != want.Type || g.Description != want.Description {
			t.Errorf("item %d = %+v, want %+v", i, g, want)
		}
		if g.Parent != want.Parent {
			t.Errorf("item %d parent = %q, want %q", i, g.Parent, want.Parent)
		}
		if strings.Join(g.Children, "|") != strings.Join(want.Children, "|") {
			t.Errorf("item %d children = %v, want %v", i, g.Children, want.Children)
		}
	}
	if !strings.Contains(md, "title: \"Gradient Descent Plan\"") {
		t.Errorf("frontmatter title missing:\n%s", md)
	}
	if !strings.Contains(md, "- [[Loss Function]]\n- [[Learning Rate]]") {
		t.Errorf("missing connections not wikilinked once:\n%s", md)
	}
}

func TestExtractChecklist_DropsEditedItems(t *testing.T) {
	md := strings.Join([]string{
		"## Checklist",
		"- [ ] **Kept** (`Core`)",
		"    - *Still well formed*",
		"- [ ] Edited title without bold (`Core`)",
		"    - *lost*",
		"- [x] **No type here**",
		"    - *lost too*",
		"- [ ] **No description** (`Core`)",
		"plain line",
		"* **Star bullet** (`Concept`)",
		"  * *Also fine*",
		"  * Parent: [[Kept]]",
	}, "\n")
	items := ExtractChecklist(md)
	if len(items) != 2 {
		t.Fatalf("items = %+v, want 2", items)
	}
	if items[0].Title != "Kept" || items[1].Title != "Star bullet" {
		t.Errorf("titles = %q, %q", items[0].Title, items[1].Title)
	}
	if items[1].Parent != "Kept" {
		t.Errorf("parent = %q", items[1].Parent)
	}
}

func TestSidecarCurrent(t *testing.T) {
	doc, _ := Parse(samplePlan)
	note := []byte(Render(doc, RenderMeta{}, "GD"))
	sc := NewSidecar(doc, "Inbox/GD.md", note)

	data, err := sc.Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeSidecar(data)
	if err != nil {
		t.Fatalf("DecodeSidecar: %v", err)
	}
	if !back.Current(note) {
		t.Error("sidecar should match the untouched note")
	}
	if back.Current(append(note, []byte("\nedited")...)) {
		t.Error("sidecar should not match an edited note")
	}
	if len(back.Items) != 2 || back.Items[0].Title != "ML - Optimization" {
		t.Errorf("items = %+v", back.Items)
	}
	if SidecarPath("Plans/GD Plan.md") != "Plans/GD Plan.plan.json" {
		t.Errorf("SidecarPath = %q", SidecarPath("Plans/GD Plan.md"))
	}
}

func TestFind(t *testing.T) {
	items := []ChecklistItem{{Title: "Alpha"}, {Title: "Beta"}}
	if it, ok := Find(items, "beta"); !ok || it.Title != "Beta" {
		t.Errorf("Find(beta) = %+v, %v", it, ok)
	}
	if _, ok := Find(items, "gamma"); ok {
		t.Error("Find(gamma) should miss")
	}
}
