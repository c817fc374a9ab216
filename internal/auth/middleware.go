package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// CookieName is the cookie that carries the signed session id.
const CookieName = "session"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key can be read
// or shadowed by any package that knows the string. Only this package can
// create a key of type contextKey.
type contextKey string

const sessionKey contextKey = "session"

// SessionManager ties the session table to the session cookie.
type SessionManager struct {
	sessions repository.SessionRepository
	tokens   *TokenService
	ttl      time.Duration
	secure   bool
	logger   *slog.Logger
}

// NewSessionManager creates a SessionManager. secure controls the cookie's
// Secure flag and should be true whenever the API is served over HTTPS.
func NewSessionManager(sessions repository.SessionRepository, tokens *TokenService, ttl time.Duration, secure bool, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		secure:   secure,
		logger:   logger,
	}
}

// Load is a middleware that resolves the session cookie, if any, and stores
// the live session in the request context. It never rejects a request:
// a missing, forged, expired or deleted session just means "anonymous".
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new http.Handler that
// wraps it. Chi applies them in a chain: req → M1 → M2 → Handler → M2 → M1.
func (m *SessionManager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := m.lookup(r); s != nil {
			r = r.WithContext(context.WithValue(r.Context(), sessionKey, s))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth stops the request with 401 {"error":"Unauthorized"} unless Load
// found a live session. It must run after Load.
func (m *SessionManager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Establish starts a session for userID and sets the cookie.
//
// A session already attached to ctx is replaced: its row is deleted before the
// new one is created. Expired rows from any user are purged on the way; a
// failed purge is only logged.
func (m *SessionManager) Establish(ctx context.Context, w http.ResponseWriter, userID int64) error {
	if current, ok := SessionFromContext(ctx); ok {
		if err := m.sessions.DeleteSession(ctx, current.ID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("auth: replacing session: %w", err)
		}
	}

	if n, err := m.sessions.DeleteExpiredSessions(ctx); err != nil {
		m.logger.Warn("purging expired sessions failed", "error", err)
	} else if n > 0 {
		m.logger.Debug("purged expired sessions", "count", n)
	}

	session := &model.Session{
		UserID:    userID,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return fmt.Errorf("auth: creating session: %w", err)
	}

	token, err := m.tokens.Generate(session.ID, m.ttl)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy deletes the session attached to ctx and expires the cookie.
// Returns an apperror.ErrUnauthorized error when there is no session.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter) error {
	current, ok := SessionFromContext(ctx)
	if !ok {
		return apperror.Unauthorized("Unauthorized")
	}

	if err := m.sessions.DeleteSession(ctx, current.ID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("auth: deleting session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SessionFromContext returns the live session Load attached, if any.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*model.Session)
	return s, ok && s != nil
}

// UserIDFromContext returns the user the current session belongs to.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous request
//	}
func UserIDFromContext(ctx context.Context) (int64, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return 0, false
	}
	return s.UserID, true
}

// lookup verifies the cookie and loads the row it names. Any failure is nil.
func (m *SessionManager) lookup(r *http.Request) *model.Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie: anonymous, not an error.
		return nil
	}

	id, err := m.tokens.Validate(cookie.Value)
	if err != nil {
		m.logger.Debug("rejected session cookie", "error", err)
		return nil
	}

	s, err := m.sessions.GetSession(r.Context(), id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			m.logger.Error("loading session failed", "error", err)
		}
		return nil
	}
	if s.Expired(time.Now()) {
		return nil
	}
	return s
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
