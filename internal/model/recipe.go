package model

import (
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"
)

// MinInstructionsLength is the shortest trimmed instructions text accepted.
const MinInstructionsLength = 50

// Recipe belongs to exactly one User through UserID.
//
// User is filled in by the repository when recipes are read (one level deep,
// never the owner's other recipes). It is nil on a freshly built Recipe and is
// never written back to the database; UserID is the only link stored.
type Recipe struct {
	ID                int64
	Title             string
	Instructions      string
	MinutesToComplete int
	UserID            int64

	User *User
}

// Validate checks the invariants that must hold at commit time. Every failing
// field is reported, not just the first.
//
// UserID is not checked here: a zero UserID reaches the database as NULL and
// fails the NOT NULL constraint, which surfaces as an integrity error.
func (r *Recipe) Validate() error {
	var v apperror.Validation
	if strings.TrimSpace(r.Title) == "" {
		v.Add("title", "title required")
	}
	if len([]rune(strings.TrimSpace(r.Instructions))) < MinInstructionsLength {
		v.Add("instructions", "instructions too short")
	}
	return v.Err()
}

var _ Entity = (*Recipe)(nil)
