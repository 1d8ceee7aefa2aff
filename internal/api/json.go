package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/retry"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	// Raw is the verbatim model output for unparseable responses.
	Raw string `json:"raw,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps pipeline and storage errors to HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	var malformed *apperr.MalformedResponseError
	var upstream *llm.StatusError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.As(err, &malformed):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error: "unparseable model response: " + malformed.Err.Error(),
			Raw:   malformed.Raw,
		})
	case errors.Is(err, apperr.ErrEmptyChecklist):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case retry.IsExhausted(err):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusBadGateway, errorBody(upstream.Error()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("request cancelled"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
