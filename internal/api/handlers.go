package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from OpenAPI clients (e.g. Plans%2FTopic%20Plan.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// decode reads a JSON body of at most 1 MiB into v and validates it.
func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// CreatePlan handles POST /api/plans.
//
//	@Summary		Create a plan from a source note
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePlanRequest	true	"Source note"
//	@Success		201		{object}	pipeline.PlanResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans [post]
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.CreatePlan(r.Context(), req.Source, nil)
	if err != nil {
		writeError(w, "create plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GenerateNotes handles POST /api/plans/generate.
//
//	@Summary		Generate notes for every checklist item of a plan
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		GenerateNotesRequest	true	"Plan note"
//	@Success		200		{object}	pipeline.Summary
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/generate [post]
func (h *Handler) GenerateNotes(w http.ResponseWriter, r *http.Request) {
	var req GenerateNotesRequest
	if !decode(w, r, &req) {
		return
	}
	sum, err := h.svc.GenerateNotes(r.Context(), req.Plan, nil)
	if err != nil {
		writeError(w, "generate notes", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Templates handles GET /api/templates.
//
//	@Summary		List templates and their placeholders
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	TemplatesResponse
//	@Security		BearerAuth
//	@Router			/templates [get]
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Templates(r.Context())
	if err != nil {
		writeError(w, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, TemplatesResponse{Templates: list})
}

// Search handles GET /api/search.
//
//	@Summary		Search note titles, bodies and tags
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Runs handles GET /api/runs.
//
//	@Summary		Recent plan and item outcomes
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int		false	"Max entries"
//	@Success		200		{object}	RunsResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.ReadNote(r.Context(), path)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}
