package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// unitOfWork queues inserts and applies them in one transaction on Commit.
// It is not safe for concurrent use; each request builds its own.
type unitOfWork struct {
	db      *DB
	pending []model.Entity
}

// Begin starts an empty unit of work. No transaction is opened until Commit.
func (db *DB) Begin() repository.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Insert(entity model.Entity) {
	u.pending = append(u.pending, entity)
}

// Rollback discards everything pending. Safe to call at any time, including
// after a successful Commit (then there is nothing to discard).
func (u *unitOfWork) Rollback() {
	u.pending = nil
}

// Commit validates every pending entity, then inserts them all inside one
// transaction.
//
// Validation runs first so an invalid entity never opens a transaction.
// On any insert error the transaction is rolled back and no generated id is
// written onto any entity; the queue is left intact for the caller's
// Rollback. On success ids are assigned and the queue is emptied.
func (u *unitOfWork) Commit(ctx context.Context) (err error) {
	if len(u.pending) == 0 {
		return nil
	}

	for _, e := range u.pending {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	tx, err := u.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// ids are applied only once the transaction has committed.
	assign := make([]func(), 0, len(u.pending))
	for _, e := range u.pending {
		switch v := e.(type) {
		case *model.User:
			id, err := insertUser(ctx, tx, v)
			if err != nil {
				return err
			}
			assign = append(assign, func() { v.ID = id })
		case *model.Recipe:
			id, err := insertRecipe(ctx, tx, v)
			if err != nil {
				return err
			}
			assign = append(assign, func() { v.ID = id })
		default:
			return fmt.Errorf("sqlite: unit of work cannot persist %T", e)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}

	for _, apply := range assign {
		apply()
	}
	u.pending = nil
	return nil
}
