// Package models defines the domain types shared by storage, index and surfaces.
package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item outcome statuses recorded in the run log.
const (
	StatusSucceeded = "succeeded"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Run record kinds.
const (
	RunKindPlan = "plan"
	RunKindItem = "item"
)

// RunRecord is one line of the generation log: the outcome of a plan request
// or of a single checklist item.
type RunRecord struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	PlanPath  string    `json:"plan_path"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	NotePath  string    `json:"note_path,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
