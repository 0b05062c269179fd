// Package response writes the JSON envelope shared by the API: data on
// success, error on failure, never both.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/fieldmap/pkg/errors"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeNoAreaSelected     = "NO_AREA_SELECTED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Response is the envelope.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Fail builds an error envelope.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with status 200.
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, Response{Data: data})
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message, details string) {
	write(w, http.StatusUnauthorized, Fail(CodeUnauthorized, message, details))
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, details string) {
	write(w, http.StatusServiceUnavailable, Fail(CodeServiceUnavailable, "Service unavailable", details))
}

// InternalError writes a 500. err stays server side.
func InternalError(w http.ResponseWriter, _ error) {
	write(w, http.StatusInternalServerError, Fail(CodeInternal, "Internal server error", "An unexpected error occurred"))
}

// ErrorFromType picks the status and code for err from the fieldmap
// error kinds. Anything unrecognised is a 500.
func ErrorFromType(w http.ResponseWriter, err error) {
	status, resp := classify(err)
	write(w, status, resp)
}

func classify(err error) (int, Response) {
	msg := err.Error()
	switch {
	case errors.Is(err, errors.ErrNoAreaSelected):
		return http.StatusConflict, Fail(CodeNoAreaSelected, msg, "Select an area first")
	case errors.IsNotFound(err):
		return http.StatusNotFound, Fail(CodeNotFound, msg, "")
	case errors.IsMalformedData(err), errors.IsValidationError(err):
		return http.StatusBadRequest, Fail(CodeBadRequest, msg, "")
	case errors.IsStorageUnavailable(err):
		return http.StatusServiceUnavailable, Fail(CodeServiceUnavailable, "Service unavailable", msg)
	}
	return http.StatusInternalServerError, Fail(CodeInternal, "Internal server error", "An unexpected error occurred")
}
