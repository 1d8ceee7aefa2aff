package plan

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/parser"
)

var (
	itemRe     = regexp.MustCompile("^\\s*[-*] (?:\\[[ xX]\\] )?\\*\\*(.+?)\\*\\* \\(`([^`]+)`\\)\\s*$")
	descRe     = regexp.MustCompile(`^\s+[-*] \*(.*)\*\s*$`)
	parentRe   = regexp.MustCompile(`^\s+[-*] Parent:\s*(.*)$`)
	childrenRe = regexp.MustCompile(`^\s+[-*] Children:\s*(.*)$`)
)

// ExtractChecklist recovers checklist items from a rendered plan note.
//
// Matching is best-effort: an item whose bold title, backticked type, or
// italic description line was edited away is dropped without error.
func ExtractChecklist(markdown string) []ChecklistItem {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")
	var items []ChecklistItem
	seen := make(map[string]struct{})

	for i := 0; i < len(lines); i++ {
		m := itemRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if i+1 >= len(lines) {
			break
		}
		d := descRe.FindStringSubmatch(lines[i+1])
		if d == nil {
			continue
		}
		it := ChecklistItem{
			Title:       strings.TrimSpace(m[1]),
			Type:        strings.TrimSpace(m[2]),
			Description: strings.TrimSpace(d[1]),
		}
		i++

		// Optional Parent/Children sub-bullets directly below the description.
		for i+1 < len(lines) {
			next := lines[i+1]
			if pm := parentRe.FindStringSubmatch(next); pm != nil {
				if links := parser.ExtractLinks(pm[1]); len(links) > 0 {
					it.Parent = links[0]
				}
				i++
				continue
			}
			if cm := childrenRe.FindStringSubmatch(next); cm != nil {
				it.Children = append(it.Children, parser.ExtractLinks(cm[1])...)
				i++
				continue
			}
			break
		}

		key := strings.ToLower(it.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, it)
	}
	return items
}
