package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/recipe-box/internal/apperror"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteError(t *testing.T) {
	multi := func() error {
		var v apperror.Validation
		v.Add("title", "title required")
		v.Add("instructions", "instructions too short")
		return v.Err()
	}()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation",
			err:        apperror.ValidationFailed("", "all fields are required"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":["all fields are required"]}`,
		},
		{
			name:       "aggregated validation",
			err:        multi,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":["title required","instructions too short"]}`,
		},
		{
			name:       "integrity wrapped by a service",
			err:        fmt.Errorf("service/auth: %w", apperror.Integrity("username already taken")),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":["username already taken"]}`,
		},
		{
			name:       "unauthorized",
			err:        apperror.Unauthorized("Invalid credentials"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Invalid credentials"}`,
		},
		{
			name:       "not found",
			err:        apperror.NotFound("recipe", "9"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"errors":["recipe not found with id 9"]}`,
		},
		{
			name:       "unknown error hides details",
			err:        errors.New("sqlite: disk I/O error at /var/lib/recipes.db"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, discardLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type target struct {
		Name    string `json:"name"`
		Minutes any    `json:"minutes"`
	}

	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantBody   string
	}{
		{name: "valid", body: `{"name":"x","minutes":20}`, wantOK: true},
		{name: "unknown fields ignored", body: `{"name":"x","extra":1}`, wantOK: true},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":["invalid JSON body"]}`,
		},
		{
			name:       "truncated",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"errors":["invalid JSON body"]}`,
		},
		{
			name:       "wrong type",
			body:       `{"name":true}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":["name must be a string"]}`,
		},
		{
			name:       "array instead of object",
			body:       `[1,2]`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"errors":["body must be a JSON object"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var dst target
			ok := decodeJSON(rec, req, &dst)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.wantStatus, rec.Code)
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestDecodeJSON_KeepsIntegerNumbers(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"minutes":20}`))
	var dst struct {
		Minutes any `json:"minutes"`
	}

	assert.True(t, decodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "20", fmt.Sprint(dst.Minutes))
	assert.IsType(t, json.Number(""), dst.Minutes)
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 64)+`"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	var dst struct {
		Name string `json:"name"`
	}
	assert.False(t, decodeJSON(rec, req, &dst))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
