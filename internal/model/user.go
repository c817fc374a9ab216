// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"
)

// ErrPasswordUnreadable is the panic value of User.Password and the error
// returned when a PasswordHash is asked to encode itself.
var ErrPasswordUnreadable = errors.New("model: password hashes are not viewable")

// Entity is anything the unit of work can persist. Validate runs right before
// commit, on every commit attempt.
type Entity interface {
	Validate() error
}

// Hasher turns a plaintext password into a stored hash.
// *auth.PasswordService satisfies it.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// Verifier checks a plaintext password against a stored hash.
type Verifier interface {
	Matches(hash, plaintext string) bool
}

// PasswordHash is an opaque bcrypt hash.
//
// It can travel to and from the database (driver.Valuer / sql.Scanner) but it
// refuses to become JSON and prints as "[redacted]", so a stray log line or
// encoder call can never leak it.
type PasswordHash string

func (h PasswordHash) String() string   { return "[redacted]" }
func (h PasswordHash) GoString() string { return `model.PasswordHash("[redacted]")` }

// MarshalJSON always fails.
func (h PasswordHash) MarshalJSON() ([]byte, error) {
	return nil, ErrPasswordUnreadable
}

// Value stores an unset hash as NULL so the NOT NULL column catches users
// that never had a password set.
func (h PasswordHash) Value() (driver.Value, error) {
	if h == "" {
		return nil, nil
	}
	return string(h), nil
}

// Scan reads the column back.
func (h *PasswordHash) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*h = ""
	case string:
		*h = PasswordHash(v)
	case []byte:
		*h = PasswordHash(v)
	default:
		return fmt.Errorf("model: cannot scan %T into PasswordHash", src)
	}
	return nil
}

// User represents a registered account.
//
// The password hash is unexported: it is written through SetPassword, checked
// through Authenticate, and only the storage layer touches the raw column via
// HashColumn. There is no getter.
//
// ImageURL and Bio are pointers because "not provided" must serialize as null,
// not as an empty string.
type User struct {
	ID       int64
	Username string
	ImageURL *string
	Bio      *string

	hash PasswordHash
}

// SetPassword hashes plaintext and stores the hash. The plaintext is not kept.
func (u *User) SetPassword(h Hasher, plaintext string) error {
	hashed, err := h.Hash(plaintext)
	if err != nil {
		return err
	}
	u.hash = PasswordHash(hashed)
	return nil
}

// HasPassword reports whether SetPassword has succeeded (or a hash was loaded).
func (u *User) HasPassword() bool {
	return u.hash != ""
}

// Authenticate reports whether plaintext matches the stored hash. A user with
// no hash never authenticates.
func (u *User) Authenticate(v Verifier, plaintext string) bool {
	if u.hash == "" {
		return false
	}
	return v.Matches(string(u.hash), plaintext)
}

// Password exists only to fail. Reading a password back is a programming
// error, so it panics instead of returning something that looks usable.
func (u *User) Password() string {
	panic(ErrPasswordUnreadable)
}

// HashColumn exposes the hash field to the persistence layer as an opaque
// value: pass it to ExecContext as an argument or to Scan as a destination.
func (u *User) HashColumn() *PasswordHash {
	return &u.hash
}

// Validate checks the invariants that must hold at commit time.
func (u *User) Validate() error {
	var v apperror.Validation
	if strings.TrimSpace(u.Username) == "" {
		v.Add("username", "username required")
	}
	return v.Err()
}

// compile-time check
var _ Entity = (*User)(nil)
