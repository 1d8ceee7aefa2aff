// Package prompt builds the instructions sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/plan"
)

// maxContextTitles caps how many existing note titles go into a plan prompt.
const maxContextTitles = 150

// PlanInput is everything the plan prompt is built from.
type PlanInput struct {
	SourceTitle    string
	SourceBody     string
	ExistingTitles []string
	HierarchyIndex string
	TemplateTypes  []string
}

// Plan builds the prompt that asks for a structured plan as JSON.
func Plan(in PlanInput) string {
	var b strings.Builder
	b.WriteString("You are a knowledge-management assistant. Read the note below and propose a plan ")
	b.WriteString("for turning it into a set of small, atomic, well-linked notes.\n\n")

	fmt.Fprintf(&b, "## Source note: %s\n\n", in.SourceTitle)
	b.WriteString(strings.TrimSpace(in.SourceBody))
	b.WriteString("\n\n")

	if len(in.TemplateTypes) > 0 {
		b.WriteString("## Available note types\n\n")
		b.WriteString("Use one of these for every `type` field where it fits: ")
		b.WriteString(strings.Join(in.TemplateTypes, ", "))
		b.WriteString(".\n\n")
	}

	if idx := strings.TrimSpace(in.HierarchyIndex); idx != "" {
		b.WriteString("## Existing structural notes\n\n")
		b.WriteString("Attach new notes under these where appropriate (use exact titles for `parent`):\n\n")
		b.WriteString(idx)
		b.WriteString("\n\n")
	}

	if len(in.ExistingTitles) > 0 {
		titles := in.ExistingTitles
		if len(titles) > maxContextTitles {
			titles = titles[:maxContextTitles]
		}
		b.WriteString("## Notes already in the vault\n\n")
		b.WriteString("Do not plan duplicates of these; suggest them in missingConnections when relevant:\n")
		for _, t := range titles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}

	b.WriteString(planSchema)
	return b.String()
}

const planSchema = "## Response format\n\n" +
	"Respond with a single JSON object inside a ```json code block and nothing else. Shape:\n\n" +
	"```json\n" + `{
  "noteIdentity": {"suggestedType": "string", "justification": "string"},
  "planDetails": {"mainTopic": "string", "uniquePhrase": "string"},
  "overallFeedback": "string",
  "reviewPoints": [{"concept": "string", "suggestion": "string"}],
  "missingConnections": ["[[Note Title]]"],
  "provocativeQuestions": ["string"],
  "noteCategories": [{"categoryTitle": "string", "categoryDescription": "string", "notes": [{"title": "string"}]}],
  "checklistNotes": [{"title": "string", "type": "string", "description": "string", "parent": "string (optional)", "children": ["string"]}]
}` + "\n```\n\n" +
	"Rules: every checklist title is unique and self-explanatory; `description` is one or two sentences of " +
	"context for writing that note; `parent` and `children` reference other checklist titles or existing notes.\n"

// FieldsInput is everything a per-item prompt is built from.
type FieldsInput struct {
	Item     plan.ChecklistItem
	Parent   *plan.ChecklistItem // nil when the item has no resolvable parent
	Children []string
	Fields   []string
	Template string
	Topic    string
}

// Fields builds the prompt asking the model to fill the requested template fields.
func Fields(in FieldsInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the content for the note \"%s\" (type: %s).\n\n", in.Item.Title, in.Item.Type)
	if in.Topic != "" {
		fmt.Fprintf(&b, "It belongs to a plan about: %s.\n", in.Topic)
	}
	if d := strings.TrimSpace(in.Item.Description); d != "" {
		fmt.Fprintf(&b, "Context: %s\n", d)
	}
	if in.Parent != nil {
		fmt.Fprintf(&b, "It sits under the broader note \"%s\"", in.Parent.Title)
		if in.Parent.Description != "" {
			fmt.Fprintf(&b, " (%s)", strings.TrimSpace(in.Parent.Description))
		}
		b.WriteString(".\n")
	}
	if len(in.Children) > 0 {
		fmt.Fprintf(&b, "It introduces these narrower notes: %s.\n", strings.Join(in.Children, ", "))
	}

	b.WriteString("\nThe note will be rendered from this template:\n\n```markdown\n")
	b.WriteString(strings.TrimSpace(in.Template))
	b.WriteString("\n```\n\n")

	b.WriteString("Respond with a single JSON object inside a ```json code block. Provide exactly these keys:\n")
	for _, f := range in.Fields {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nValues are strings, or arrays of strings for list-like fields. ")
	b.WriteString("Write note titles in list fields without [[ ]] brackets. Do not include any other keys.\n")
	return b.String()
}

// DraftTemplate builds the prompt asking for a new template for noteType.
func DraftTemplate(noteType string, example string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design a reusable Markdown note template for notes of type \"%s\".\n\n", noteType)
	b.WriteString("Requirements:\n")
	b.WriteString("- Start with YAML frontmatter containing at least `title: \"{{title}}\"` and `type: {{type}}`.\n")
	b.WriteString("- Mark every piece of content to be generated with a {{snake_case}} placeholder.\n")
	b.WriteString("- Use headings for sections; keep it under 40 lines.\n")
	if ex := strings.TrimSpace(example); ex != "" {
		b.WriteString("\nFollow the style of this existing template:\n\n```markdown\n")
		b.WriteString(ex)
		b.WriteString("\n```\n")
	}
	b.WriteString("\nRespond with only the template inside a ```markdown code block.\n")
	return b.String()
}
