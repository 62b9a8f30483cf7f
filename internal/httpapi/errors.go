package httpapi

import (
	"net/http"

	"github.com/openword/roundserver/internal/roomstate"
)

// errorResponse is the uniform failure body, per spec.md §7 ("The HTTP
// body always contains {error} on failure").
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a tagged Failure's Kind to an HTTP status, per spec.md §7.
func statusFor(kind roomstate.Kind) int {
	switch kind {
	case roomstate.BadRequest:
		return http.StatusBadRequest
	case roomstate.Unauthorised:
		return http.StatusUnauthorized
	case roomstate.Forbidden:
		return http.StatusForbidden
	case roomstate.NotFound:
		return http.StatusNotFound
	case roomstate.Conflict:
		return http.StatusConflict
	case roomstate.Gone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
