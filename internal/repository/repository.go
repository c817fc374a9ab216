// Package repository declares the storage contracts the service layer depends on.
// internal/repository/sqlite is the only implementation; service tests use fakes.
package repository

import (
	"context"

	"github.com/sakif/recipe-box/internal/model"
)

// UnitOfWork accumulates pending inserts and applies them all-or-nothing.
//
// Typical use:
//
//	uow := store.Begin()
//	uow.Insert(user)
//	if err := uow.Commit(ctx); err != nil {
//	    uow.Rollback()
//	    return err
//	}
//
// Commit validates every pending entity, then writes them in one transaction.
// After a failed Commit the pending entities are still queued; Rollback
// discards them so the unit of work is clean again.
type UnitOfWork interface {
	Insert(entity model.Entity)
	Commit(ctx context.Context) error
	Rollback()
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// RecipeRepository reads recipes with their owner attached one level deep.
type RecipeRepository interface {
	GetRecipeByID(ctx context.Context, id int64) (*model.Recipe, error)
	ListRecipes(ctx context.Context) ([]model.Recipe, error)
	ListRecipesByUser(ctx context.Context, userID int64) ([]model.Recipe, error)
}

// Store is everything a request needs from persistence.
type Store interface {
	Begin() UnitOfWork
	UserRepository
	RecipeRepository
}

// SessionRepository keeps the server-held side of logins.
// GetSession treats expired rows as missing.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
