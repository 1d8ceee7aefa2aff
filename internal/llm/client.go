// Package llm adapts remote generative models to a single prompt-in,
// text-out contract.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Request is one generation call. It is built fresh for every call.
type Request struct {
	Prompt string
	// Temperature is optional; nil leaves the model default in place.
	Temperature *float32
}

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Temperature returns a pointer suitable for Request.Temperature.
func Temperature(t float64) *float32 {
	v := float32(t)
	return &v
}

// StatusError is a remote failure carrying the HTTP-style status code
// reported by the provider.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.Code)
	}
	return fmt.Sprintf("[%d %s] %s", e.Code, status, e.Message)
}

// StatusCode exposes the code to classifiers that only know the method set.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// Transient reports whether the failure is server-side (5xx).
func (e *StatusError) Transient() bool {
	return e.Code >= 500 && e.Code <= 599
}
