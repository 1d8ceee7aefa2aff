package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
)

var (
	jsonFenceRe = regexp.MustCompile("(?s)```json\\s*\\n?(.*?)```")
	anyFenceRe  = regexp.MustCompile("```[A-Za-z]*")
)

// StripFences returns the content of the first ```json block, or the text
// with every ``` fence marker removed.
func StripFences(raw string) string {
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(anyFenceRe.ReplaceAllString(raw, ""))
}

// Parse decodes a plan response. Malformed output is reported as
// *apperr.MalformedResponseError carrying raw verbatim; it is never retried.
//
// Only the top-level object and checklistNotes must be well formed. Any other
// field with an unexpected shape falls back to its empty value.
func Parse(raw string) (*Document, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, &apperr.MalformedResponseError{Raw: raw, Err: errors.New("empty response")}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, &apperr.MalformedResponseError{Raw: raw, Err: err}
	}
	if fields == nil {
		return nil, &apperr.MalformedResponseError{Raw: raw, Err: errors.New("expected a JSON object")}
	}

	var doc Document
	if items, ok := fields["checklistNotes"]; ok {
		if err := json.Unmarshal(items, &doc.ChecklistNotes); err != nil {
			return nil, &apperr.MalformedResponseError{Raw: raw, Err: fmt.Errorf("checklistNotes: %w", err)}
		}
	}
	lenient(fields["noteIdentity"], &doc.NoteIdentity)
	lenient(fields["planDetails"], &doc.PlanDetails)
	lenient(fields["overallFeedback"], &doc.OverallFeedback)
	lenient(fields["reviewPoints"], &doc.ReviewPoints)
	lenient(fields["missingConnections"], &doc.MissingConnections)
	lenient(fields["provocativeQuestions"], &doc.ProvocativeQuestions)
	lenient(fields["noteCategories"], &doc.NoteCategories)

	doc.normalize()
	return &doc, nil
}

// lenient decodes raw into dst, leaving dst untouched when raw is missing or
// has the wrong shape.
func lenient[T any](raw json.RawMessage, dst *T) {
	if len(raw) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

// ParseFields decodes a JSON object of generated field values.
func ParseFields(raw string) (map[string]any, error) {
	body := StripFences(raw)
	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, &apperr.MalformedResponseError{Raw: raw, Err: err}
	}
	if fields == nil {
		return nil, &apperr.MalformedResponseError{Raw: raw, Err: errors.New("expected a JSON object")}
	}
	return fields, nil
}
