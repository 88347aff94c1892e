// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client, and
// every error, whatever its origin, leaves through Error so clients always
// see the same envelope.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
//
//	{ "status": "error", "error": "no rooms available in hostel" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// StatusFor maps a core error kind to its HTTP status code. Anything
// unrecognised is a 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNoVacancy),
		errors.Is(err, types.ErrOutstandingBalance),
		errors.Is(err, types.ErrDuplicateUsername),
		errors.Is(err, types.ErrAlreadyAssigned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status StatusFor picks. Internal errors are
// reported generically so database details never reach the client.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		WriteJSON(w, status, GeneralError(errors.New("internal server error")))
		return
	}
	WriteJSON(w, status, GeneralError(userMessage(err)))
}

// userMessage strips the "Op: ..." prefixes storage and services add and
// keeps the kind's own message plus any detail right before it.
func userMessage(err error) error {
	for _, kind := range []error{
		types.ErrNoVacancy,
		types.ErrOutstandingBalance,
		types.ErrInvalidAmount,
		types.ErrNotFound,
		types.ErrDuplicateUsername,
		types.ErrAlreadyAssigned,
		types.ErrForbidden,
		types.ErrInvalidInput,
		types.ErrInvalidCredentials,
	} {
		if !errors.Is(err, kind) {
			continue
		}
		msg := err.Error()
		// Keep the innermost detail, e.g. "pending dues of 2000.00: <kind>".
		if i := strings.LastIndex(msg, ": "+kind.Error()); i >= 0 {
			head := msg[:i]
			if j := strings.LastIndex(head, ": "); j >= 0 {
				head = head[j+2:]
			}
			// A bare operation name ("Assign") is not worth showing.
			if strings.Contains(head, " ") {
				return fmt.Errorf("%s: %s", kind.Error(), head)
			}
		}
		return kind
	}
	return err
}

// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
//	{ "status": "error", "error": "field Username is required, field Password is invalid" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s characters", e.Field(), e.Param()))
		case "max":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param()))
		case "alphanum":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must contain only letters and digits", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
