// Package parser extracts frontmatter, wikilinks, and tags from Markdown content.
package parser

import (
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, wikilinks, and tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(string(data))
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       ExtractLinks(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// TitleOr returns the parsed title, or the file stem of notePath when the
// note has neither a frontmatter title nor an H1.
func (r *Result) TitleOr(notePath string) string {
	if r.Title != "" {
		return r.Title
	}
	return strings.TrimSuffix(path.Base(notePath), path.Ext(notePath))
}

// SplitRaw cuts text into its frontmatter block (delimiters included) and the
// remainder, without interpreting the YAML. Templates use this because their
// frontmatter usually contains {{placeholders}} and is not valid YAML yet.
// When there is no closed frontmatter block, front is empty and rest is text.
func SplitRaw(text string) (front, rest string) {
	lead := len(text) - len(strings.TrimLeft(text, "\n\r"))
	trimmed := text[lead:]
	if !strings.HasPrefix(trimmed, delim) {
		return "", text
	}
	idx := strings.Index(trimmed[len(delim):], "\n"+delim)
	if idx < 0 {
		return "", text
	}
	end := lead + len(delim) + idx + 1 + len(delim)
	// Keep the newline that terminates the closing delimiter with the front block.
	if end < len(text) && text[end] == '\n' {
		end++
	}
	return text[:end], text[end:]
}

// splitFrontmatter separates YAML frontmatter from the Markdown body.
// Missing or invalid YAML leaves the entire content as body.
func splitFrontmatter(text string) (map[string]any, string) {
	front, rest := SplitRaw(text)
	if front == "" {
		return nil, text
	}
	block := strings.TrimSpace(front)
	block = strings.TrimSuffix(strings.TrimPrefix(block, delim), delim)

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, text
	}
	return fm, strings.TrimLeft(rest, "\n\r")
}

// ExtractLinks returns deduplicated wikilink targets, normalising aliases.
func ExtractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		// [[Target|Alias]] → Target.
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects #tags from body and from the frontmatter "tags" field.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if raw, ok := fm["tags"]; ok {
		switch v := raw.(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		case string:
			add(v)
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
