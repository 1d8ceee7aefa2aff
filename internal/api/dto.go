package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
)

// CreatePlanRequest is the request body for creating a plan.
type CreatePlanRequest struct {
	Source string `json:"source" example:"Inbox/Gradient Descent.md" validate:"required"`
}

// Validate validates the request.
func (r *CreatePlanRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Source, validation.Required, validation.By(markdownPath)),
	)
}

// GenerateNotesRequest is the request body for generating notes from a plan.
type GenerateNotesRequest struct {
	Plan string `json:"plan" example:"Plans/Gradient Descent Plan.md" validate:"required"`
}

// Validate validates the request.
func (r *GenerateNotesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plan, validation.Required, validation.By(markdownPath)),
	)
}

func markdownPath(v any) error {
	s, _ := v.(string)
	if !strings.HasSuffix(s, ".md") {
		return validation.NewError("validation_markdown_path", "must be a .md vault path")
	}
	return nil
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// TemplateInfo describes one template (aliased from the domain layer).
type TemplateInfo = noteservice.TemplateInfo

// TemplatesResponse wraps the template listing.
type TemplatesResponse struct {
	Templates []TemplateInfo `json:"templates" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// RunsResponse wraps run log entries.
type RunsResponse struct {
	Runs []models.RunRecord `json:"runs" validate:"required"`
}
