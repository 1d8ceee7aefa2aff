package templates

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/plan"
)

// FormatYAMLList renders items as a YAML block list of quoted wikilinks,
// each element on its own `\n  - "[[item]]"` line.
func FormatYAMLList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		it = plan.Unlink(it)
		if it == "" {
			continue
		}
		b.WriteString("\n  - \"[[")
		b.WriteString(strings.ReplaceAll(it, `"`, `\"`))
		b.WriteString("]]\"")
	}
	return b.String()
}

// FormatBulletList renders items as markdown bullets. A single-key object
// contributes its value; lines already starting with a bullet marker are kept.
func FormatBulletList(items []any) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		text := strings.TrimSpace(itemText(it))
		if text == "" {
			continue
		}
		if hasBullet(text) {
			lines = append(lines, text)
			continue
		}
		lines = append(lines, "- "+text)
	}
	return strings.Join(lines, "\n")
}

// FormatValue renders a generated value for a placeholder. inFrontmatter
// selects YAML-list rendering for arrays.
func FormatValue(v any, inFrontmatter bool) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		if inFrontmatter {
			return FormatYAMLList(val)
		}
		anys := make([]any, len(val))
		for i, s := range val {
			anys[i] = s
		}
		return FormatBulletList(anys)
	case []any:
		if inFrontmatter {
			strs := make([]string, 0, len(val))
			for _, it := range val {
				strs = append(strs, itemText(it))
			}
			return FormatYAMLList(strs)
		}
		return FormatBulletList(val)
	default:
		return itemText(val)
	}
}

// FillTemplate populates template with data, formatting each value for where
// its placeholder sits: frontmatter or body.
func FillTemplate(template string, data map[string]any) string {
	front, body := parser.SplitRaw(template)

	frontData := make(map[string]string, len(data))
	bodyData := make(map[string]string, len(data))
	for k, v := range data {
		frontData[k] = FormatValue(v, true)
		bodyData[k] = FormatValue(v, false)
	}
	if front == "" {
		return Populate(body, bodyData)
	}
	return Populate(front, frontData) + Populate(body, bodyData)
}

func itemText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		if len(val) == 1 {
			for _, inner := range val {
				return itemText(inner)
			}
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+itemText(val[k]))
		}
		return strings.Join(parts, "; ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, it := range val {
			parts = append(parts, itemText(it))
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool, int, int64:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func hasBullet(s string) bool {
	return strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* ") || strings.HasPrefix(s, "+ ")
}
