// Package apperr holds the error values shared across layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrTemplateNotFound = errors.New("template not found")
	ErrEmptyChecklist   = errors.New("plan has no checklist items")
)

// MalformedResponseError reports model output that could not be decoded.
// Raw is the verbatim response so a human can inspect and fix it.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("unparseable model response: %v\n--- raw response ---\n%s", e.Err, e.Raw)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is (or wraps) a MalformedResponseError.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
