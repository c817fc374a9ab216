package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, password_hash, image_url, bio`

// insertUser writes one user and returns the generated id. It is only called
// from UnitOfWork.Commit, inside the commit transaction.
//
// The hash goes through model.PasswordHash's driver.Valuer: an unset hash is
// sent as NULL and the NOT NULL column rejects it.
func insertUser(ctx context.Context, q dbtx, user *model.User) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, image_url, bio)
		 VALUES (?, ?, ?, ?)`,
		user.Username,
		*user.HashColumn(),
		user.ImageURL,
		user.Bio,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: inserting user %q: %w", user.Username, translateConstraint(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by exact username.
// Returns apperror.ErrNotFound if nobody has that username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user not found with username %s", username),
			}
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		imageURL sql.NullString
		bio      sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, u.HashColumn(), &imageURL, &bio); err != nil {
		return nil, err
	}
	u.ImageURL = nullableString(imageURL)
	u.Bio = nullableString(bio)
	return &u, nil
}
