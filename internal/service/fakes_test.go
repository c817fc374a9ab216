package service

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================

// fakeStore is an in-memory repository.Store. It enforces the same rules the
// SQLite schema does (unique usernames, NOT NULL hash, existing owner) so the
// services see the same errors they would in production.
//
// Using a fake (not a mock framework) keeps tests easy to read: you can see
// exactly what the fake does.
type fakeStore struct {
	users   []*model.User
	recipes []*model.Recipe

	// set to a non-nil error to simulate a database failure
	commitErr error
	lookupErr error

	commits   int
	rollbacks int
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) Begin() repository.UnitOfWork {
	return &fakeUnitOfWork{store: f}
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeStore) GetRecipeByID(ctx context.Context, id int64) (*model.Recipe, error) {
	for _, r := range f.recipes {
		if r.ID == id {
			return f.withOwner(ctx, *r), nil
		}
	}
	return nil, apperror.NotFound("recipe", strconv.FormatInt(id, 10))
}

func (f *fakeStore) ListRecipes(ctx context.Context) ([]model.Recipe, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	out := make([]model.Recipe, 0, len(f.recipes))
	for _, r := range f.recipes {
		out = append(out, *f.withOwner(ctx, *r))
	}
	return out, nil
}

func (f *fakeStore) ListRecipesByUser(ctx context.Context, userID int64) ([]model.Recipe, error) {
	out := make([]model.Recipe, 0)
	for _, r := range f.recipes {
		if r.UserID == userID {
			out = append(out, *f.withOwner(ctx, *r))
		}
	}
	return out, nil
}

func (f *fakeStore) withOwner(ctx context.Context, r model.Recipe) *model.Recipe {
	if owner, err := f.GetUserByID(ctx, r.UserID); err == nil {
		r.User = &model.User{ID: owner.ID, Username: owner.Username, ImageURL: owner.ImageURL, Bio: owner.Bio}
	}
	return &r
}

// fakeUnitOfWork mirrors the SQLite unit of work: validate everything, check
// constraints, then assign ids only when the whole batch is accepted.
type fakeUnitOfWork struct {
	store   *fakeStore
	pending []model.Entity
}

func (u *fakeUnitOfWork) Insert(e model.Entity) {
	u.pending = append(u.pending, e)
}

func (u *fakeUnitOfWork) Rollback() {
	u.store.rollbacks++
	u.pending = nil
}

func (u *fakeUnitOfWork) Commit(ctx context.Context) error {
	for _, e := range u.pending {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	if u.store.commitErr != nil {
		return u.store.commitErr
	}

	taken := make(map[string]bool)
	for _, existing := range u.store.users {
		taken[existing.Username] = true
	}
	for _, e := range u.pending {
		switch v := e.(type) {
		case *model.User:
			if taken[v.Username] {
				return apperror.Integrity("username already taken")
			}
			if !v.HasPassword() {
				return apperror.Integrity("password_hash required")
			}
			taken[v.Username] = true
		case *model.Recipe:
			if v.UserID == 0 {
				return apperror.Integrity("user_id required")
			}
			if _, err := u.store.GetUserByID(ctx, v.UserID); err != nil {
				return apperror.Integrity("referenced record does not exist")
			}
		}
	}

	for _, e := range u.pending {
		switch v := e.(type) {
		case *model.User:
			v.ID = int64(len(u.store.users) + 1)
			cp := *v
			u.store.users = append(u.store.users, &cp)
		case *model.Recipe:
			v.ID = int64(len(u.store.recipes) + 1)
			cp := *v
			u.store.recipes = append(u.store.recipes, &cp)
		}
	}
	u.store.commits++
	u.pending = nil
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

// quietLogger only prints errors so test output stays readable.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
