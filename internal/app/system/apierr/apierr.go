// Package apierr defines the error taxonomy surfaced by the JSON API and
// the helpers that render errors and success payloads.
//
// Handlers and the assignment engine return these typed errors; the render
// helpers map them onto HTTP statuses. Internal causes are logged by the
// caller and never exposed in response bodies.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Validation reports a missing or malformed required field.
type Validation struct {
	Field string
}

func (e *Validation) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// NotFound reports an absent department, ward, bed, assignment, or user.
type NotFound struct {
	Resource string // "department", "ward", "bed", "assignment", "user"
	ID       string
}

func (e *NotFound) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Unauthorized reports that the acting user is neither the owner nor an
// admin. The message deliberately does not reveal whether the resource
// exists.
type Unauthorized struct{}

func (e *Unauthorized) Error() string { return "not authorized" }

// Conflict reports beds that could not be added because a different user
// holds them. It accompanies a partial success: non-conflicting beds were
// applied.
type Conflict struct {
	Beds []string
}

func (e *Conflict) Error() string {
	return "beds held by another user: " + strings.Join(e.Beds, ", ")
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write renders err as a JSON error response with the status implied by its
// type. Unknown errors render as a generic 500; the caller is responsible
// for logging the cause.
func Write(w http.ResponseWriter, err error) {
	var (
		ve *Validation
		nf *NotFound
		ua *Unauthorized
		cf *Conflict
	)
	switch {
	case errors.As(err, &ve):
		JSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &nf):
		JSON(w, http.StatusNotFound, map[string]any{"error": nf.Error()})
	case errors.As(err, &ua):
		JSON(w, http.StatusUnauthorized, map[string]any{"error": ua.Error()})
	case errors.As(err, &cf):
		JSON(w, http.StatusBadRequest, map[string]any{"error": cf.Error(), "conflicts": cf.Beds})
	default:
		JSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

// Status returns the HTTP status Write would use for err. Useful in tests
// and logging paths.
func Status(err error) int {
	var (
		ve *Validation
		nf *NotFound
		ua *Unauthorized
		cf *Conflict
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &cf):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ua):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
