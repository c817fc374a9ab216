package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores a new session. ID and CreatedAt are filled in when
// empty; ExpiresAt must be set by the caller.
//
// xid ids are unique but not secret. That is fine here because the cookie
// that carries the id is signed (see auth.TokenService), so a client can't
// present an id it wasn't given.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	if session.ID == "" {
		session.ID = xid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.CreatedAt.Unix(),
		session.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session for user %d: %w", session.UserID, translateConstraint(err))
	}
	return nil
}

// GetSession returns a live session. Expired rows count as missing.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		s                    model.Session
		createdAt, expiresAt int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at
		 FROM sessions
		 WHERE id = ? AND expires_at > ?`,
		id, time.Now().Unix(),
	).Scan(&s.ID, &s.UserID, &createdAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	s.CreatedAt = time.Unix(createdAt, 0)
	s.ExpiresAt = time.Unix(expiresAt, 0)
	return &s, nil
}

// DeleteSession removes a session. Returns apperror.ErrNotFound if it was
// already gone.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session", id)
	}
	return nil
}

// DeleteExpiredSessions purges dead rows and reports how many went.
func (db *DB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
