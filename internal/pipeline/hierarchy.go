package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/plan"
)

const hierarchyHeader = "# Hierarchy Index\n\n"

// entryRe captures the title an index line is about: its leading wikilink.
var entryRe = regexp.MustCompile(`(?m)^\s*[-*]\s+\[\[([^\]|#]+)`)

// listedTitles returns the lower-cased titles that already have their own
// line. Titles mentioned only as a parent do not count.
func listedTitles(content string) map[string]struct{} {
	listed := make(map[string]struct{})
	for _, m := range entryRe.FindAllStringSubmatch(content, -1) {
		listed[strings.ToLower(strings.TrimSpace(m[1]))] = struct{}{}
	}
	return listed
}

// HierarchyEntry renders one index line.
func HierarchyEntry(it plan.ChecklistItem) string {
	line := fmt.Sprintf("- %s (`%s`)", plan.Wikilink(it.Title), it.Type)
	if it.Parent != "" {
		line += " under " + plan.Wikilink(it.Parent)
	}
	return line
}

// appendHierarchy adds structural items to the hierarchy index, skipping
// titles already listed. It returns the titles added.
func (p *Pipeline) appendHierarchy(items []plan.ChecklistItem) ([]string, error) {
	path := p.settings.Folders.HierarchyIndex
	if path == "" {
		return nil, nil
	}
	data, err := p.store.Read(path)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		content = hierarchyHeader
	}
	listed := listedTitles(content)

	var added []string
	var b strings.Builder
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it.Title))
		if _, ok := listed[key]; ok {
			continue
		}
		b.WriteString(HierarchyEntry(it))
		b.WriteString("\n")
		listed[key] = struct{}{}
		added = append(added, it.Title)
	}
	if len(added) == 0 {
		return nil, nil
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := p.store.Write(path, []byte(content+b.String())); err != nil {
		return nil, fmt.Errorf("pipeline: write hierarchy index: %w", err)
	}
	return added, nil
}
