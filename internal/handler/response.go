package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// TWO ERROR SHAPES:
// Clients of this API expect two different error bodies:
//   {"errors": ["title required", "instructions too short"]}   → 4xx input problems
//   {"error": "Unauthorized"}                                  → 401 and 5xx
//
// writeError is the single place that picks the status code and the shape.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/sakif/recipe-box/internal/apperror"
)

// ErrorResponse is the body for authentication failures and server errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorsResponse is the body for rejected input. Errors is never empty.
type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// You MUST set headers and status code BEFORE writing the body.
// Once you call w.Write() (which Encode does internally), the headers are sent.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and body.
//
// ERROR MAPPING:
//
//	ErrValidation, ErrIntegrity → 422 {"errors": [...]}
//	ErrUnauthorized             → 401 {"error": msg}
//	ErrNotFound                 → 404 {"errors": [msg]}
//	anything else               → 500 {"error": "internal server error"}
//
// errors.As walks the chain (via Unwrap) so a service wrapping an AppError
// with fmt.Errorf("...: %w", err) still maps correctly.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrIntegrity):
			writeJSON(w, http.StatusUnprocessableEntity, ErrorsResponse{Errors: appErr.Messages()})
			return
		case errors.Is(err, apperror.ErrUnauthorized):
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: appErr.Message})
			return
		case errors.Is(err, apperror.ErrNotFound):
			writeJSON(w, http.StatusNotFound, ErrorsResponse{Errors: appErr.Messages()})
			return
		}
	}

	// NEVER expose internal error details to the client: the raw message might
	// contain SQL or file paths. The log keeps the details.
	logger.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// decodeJSON reads the request body into dst. On failure it writes the
// response itself and returns false.
//
//	malformed or empty body → 400 {"errors": ["invalid JSON body"]}
//	wrong JSON type         → 422 {"errors": ["<field> must be a <type>"]}
//	body over the limit     → 413 {"errors": ["request body too large"]}
//
// Numbers are decoded as json.Number so integer-ness survives for fields
// typed as any.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := readJSON(r, dst)
	if err == nil {
		return true
	}
	writeDecodeError(w, err)
	return false
}

// readJSON decodes the body into dst without writing a response, for
// handlers that map some decode failures differently.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var (
		typeErr *json.UnmarshalTypeError
		maxErr  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorsResponse{Errors: []string{"request body too large"}})
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorsResponse{
			Errors: []string{fmt.Sprintf("%s must be a %s", field, jsonTypeName(typeErr))},
		})
	default:
		// io.EOF (empty body) lands here too.
		writeJSON(w, http.StatusBadRequest, ErrorsResponse{Errors: []string{"invalid JSON body"}})
	}
}

// jsonTypeName names the JSON type a Go field expects.
func jsonTypeName(e *json.UnmarshalTypeError) string {
	if e.Type == nil {
		return "different type"
	}
	switch e.Type.Kind() {
	case reflect.String:
		return "string"
	case reflect.Struct, reflect.Map:
		return "JSON object"
	}
	return e.Type.String()
}
