package plan

import (
	"fmt"
	"strings"
	"time"
)

// RenderMeta is the context the plan note records besides the Document.
type RenderMeta struct {
	Source    string // vault path of the source note
	Template  string // name of the matched template, empty when none
	Draft     string // vault path of a freshly drafted template, if any
	CreatedAt time.Time
}

// Title returns the plan note title.
func Title(doc *Document, fallback string) string {
	topic := doc.PlanDetails.MainTopic
	if topic == "" {
		topic = fallback
	}
	return topic + " Plan"
}

// Render produces the human-readable plan note. The Checklist section uses
// the bullet syntax ExtractChecklist understands.
func Render(doc *Document, meta RenderMeta, fallbackTitle string) string {
	var b strings.Builder
	title := Title(doc, fallbackTitle)

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", title)
	b.WriteString("type: plan\n")
	if meta.Source != "" {
		fmt.Fprintf(&b, "source: %q\n", "[["+stem(meta.Source)+"]]")
	}
	fmt.Fprintf(&b, "suggested_type: %q\n", doc.NoteIdentity.SuggestedType)
	if doc.PlanDetails.UniquePhrase != "" {
		fmt.Fprintf(&b, "unique_phrase: %q\n", doc.PlanDetails.UniquePhrase)
	}
	if !meta.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "created: %s\n", meta.CreatedAt.Format("2006-01-02"))
	}
	b.WriteString("tags:\n  - plan\n")
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Note Identity\n\n")
	fmt.Fprintf(&b, "- **Suggested type:** %s\n", doc.NoteIdentity.SuggestedType)
	if doc.NoteIdentity.Justification != "" {
		fmt.Fprintf(&b, "- **Justification:** %s\n", oneLine(doc.NoteIdentity.Justification))
	}
	switch {
	case meta.Draft != "":
		fmt.Fprintf(&b, "- **Template:** draft created at [[%s]], review it before generating\n", stem(meta.Draft))
	case meta.Template != "":
		fmt.Fprintf(&b, "- **Template:** [[%s]]\n", meta.Template)
	default:
		b.WriteString("- **Template:** none matched\n")
	}
	b.WriteString("\n")

	if doc.OverallFeedback != "" {
		b.WriteString("## Overall Feedback\n\n")
		b.WriteString(strings.TrimSpace(doc.OverallFeedback))
		b.WriteString("\n\n")
	}

	if len(doc.ReviewPoints) > 0 {
		b.WriteString("## Review Points\n\n")
		for _, rp := range doc.ReviewPoints {
			fmt.Fprintf(&b, "- **%s:** %s\n", oneLine(rp.Concept), oneLine(rp.Suggestion))
		}
		b.WriteString("\n")
	}

	if len(doc.MissingConnections) > 0 {
		b.WriteString("## Missing Connections\n\n")
		for _, c := range doc.MissingConnections {
			fmt.Fprintf(&b, "- %s\n", Wikilink(c))
		}
		b.WriteString("\n")
	}

	if len(doc.ProvocativeQuestions) > 0 {
		b.WriteString("## Provocative Questions\n\n")
		for _, q := range doc.ProvocativeQuestions {
			fmt.Fprintf(&b, "- %s\n", oneLine(q))
		}
		b.WriteString("\n")
	}

	if len(doc.NoteCategories) > 0 {
		b.WriteString("## Note Categories\n\n")
		for _, cat := range doc.NoteCategories {
			fmt.Fprintf(&b, "### %s\n\n", oneLine(cat.CategoryTitle))
			if cat.CategoryDescription != "" {
				fmt.Fprintf(&b, "%s\n\n", oneLine(cat.CategoryDescription))
			}
			for _, n := range cat.Notes {
				fmt.Fprintf(&b, "- %s\n", Wikilink(n.Title))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Checklist\n\n")
	for _, it := range doc.ChecklistNotes {
		b.WriteString(RenderItem(it))
	}
	return b.String()
}

// RenderItem renders one checklist bullet: an unchecked box with the bold
// title and backticked type, then indented sub-bullets for the italic
// description and the optional Parent and Children wikilinks.
func RenderItem(it ChecklistItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [ ] **%s** (`%s`)\n", oneLine(it.Title), oneLine(it.Type))
	fmt.Fprintf(&b, "    - *%s*\n", oneLine(it.Description))
	if it.Parent != "" {
		fmt.Fprintf(&b, "    - Parent: %s\n", Wikilink(it.Parent))
	}
	if len(it.Children) > 0 {
		links := make([]string, 0, len(it.Children))
		for _, c := range it.Children {
			if c = strings.TrimSpace(c); c != "" {
				links = append(links, Wikilink(c))
			}
		}
		if len(links) > 0 {
			fmt.Fprintf(&b, "    - Children: %s\n", strings.Join(links, ", "))
		}
	}
	return b.String()
}

// Wikilink wraps s in [[ ]] unless it already is a wikilink.
func Wikilink(s string) string {
	return "[[" + Unlink(s) + "]]"
}

// Unlink strips surrounding [[ ]] from s.
func Unlink(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[[")
	s = strings.TrimSuffix(s, "]]")
	return strings.TrimSpace(s)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stem(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSuffix(p, ".md")
}
