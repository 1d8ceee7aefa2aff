// Package templates finds note templates and fills their {{placeholder}} markers.
package templates

import (
	"regexp"
	"strings"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	leftoverRe    = regexp.MustCompile(`\{\{[^{}]*\}\}`)
)

// ExtractPlaceholders returns the distinct placeholder names in template, in
// order of first appearance. Names compare case-insensitively; the spelling of
// the first occurrence is kept.
func ExtractPlaceholders(template string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := m[1]
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Populate replaces every case-insensitive {{key}} marker of template with
// its value in a single pass and deletes markers without a value. Markers
// inside a value are deleted, never expanded, so the output holds no
// {{...}} token and does not depend on map order.
func Populate(template string, data map[string]string) string {
	values := make(map[string]string, len(data))
	for key, value := range data {
		values[strings.ToLower(strings.TrimSpace(key))] = leftoverRe.ReplaceAllString(value, "")
	}
	return leftoverRe.ReplaceAllStringFunc(template, func(marker string) string {
		m := placeholderRe.FindStringSubmatch(marker)
		if m == nil {
			return ""
		}
		return values[strings.ToLower(m[1])]
	})
}
