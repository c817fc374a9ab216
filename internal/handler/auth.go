package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/service"
)

// AuthHandler serves signup, login, logout and the session check.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup       → create the account, start a session
//   - HandleLogin        → verify credentials, start a session
//   - HandleCheckSession → return the user behind the current session
//   - HandleLogout       → end the current session
//
// The service decides whether credentials are good; the session manager owns
// the cookie. This handler only decides the order and the status codes.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		sessions: sessions,
		logger:   logger,
	}
}

type signupRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	ImageURL *string `json:"image_url"`
	Bio      *string `json:"bio"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleSignup creates a user and logs them in.
//
// HTTP: POST /signup
// Body: {"username": "...", "password": "...", "image_url": "...", "bio": "..."}
// Response: 201 + user payload, or 422 {"errors": [...]}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.Signup(r.Context(), service.SignupParams{
		Username: req.Username,
		Password: req.Password,
		ImageURL: req.ImageURL,
		Bio:      req.Bio,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// The account is already committed here. If the session cannot be started
	// the user can still log in, so the id is logged for follow-up.
	if err := h.sessions.Establish(r.Context(), w, user.ID); err != nil {
		h.logger.Error("signup committed but session not started",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Payload())
}

// HandleCheckSession returns the logged-in user.
//
// HTTP: GET /check_session
// Response: 200 + user payload, or 401 {"error": "Unauthorized"}
func (h *AuthHandler) HandleCheckSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized(service.MsgUnauthorized))
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Payload())
}

// HandleLogin verifies credentials and starts a session.
//
// HTTP: POST /login
// Body: {"username": "...", "password": "..."}
// Response: 200 + user payload, or 401 {"error": "Invalid credentials"}
//
// A failed login leaves any existing session alone. Credentials of the wrong
// JSON type are just wrong credentials, so they get the same 401.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeError(w, h.logger, apperror.Unauthorized(service.MsgInvalidCredentials))
			return
		}
		writeDecodeError(w, err)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.sessions.Establish(r.Context(), w, user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Payload())
}

// HandleLogout ends the current session.
//
// HTTP: DELETE /logout
// Response: 204 with an empty body, or 401 {"error": "Unauthorized"}
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w); err != nil {
		writeError(w, h.logger, err)
		return
	}

	// 204 No Content: success with no body to send.
	w.WriteHeader(http.StatusNoContent)
}
