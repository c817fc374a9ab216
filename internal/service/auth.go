// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses, owns cookies
//	Service (Business layer) → presence checks, coercion, unit-of-work orchestration
//	Repository (Data layer)  → reads/writes to the database
//
// Services take plain Go values and return domain errors from internal/apperror.
// They know nothing about HTTP: the handler maps errors to status codes and
// decides when a session is started or ended.
//
// THE DEPENDENCY CHAIN:
//
//	server.go creates:  DB → Services → Handlers
//	At runtime:         Handler calls Service calls Repository calls DB
//
// Services depend on repository.Store (an interface), NOT *sqlite.DB, so the
// tests in this package run against in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// Messages surfaced to clients.
const (
	MsgCredentialsRequired = "username and password are required"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgUnauthorized        = "Unauthorized"
)

// AuthService handles signup, login and resolving the current user.
//
// DEPENDENCIES (injected via NewAuthService):
//   - store      repository.Store       → users and the unit of work
//   - passwords  *auth.PasswordService  → bcrypt hashing and verification
//   - logger     *slog.Logger           → structured logging
type AuthService struct {
	store     repository.Store
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(store repository.Store, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		passwords: passwords,
		logger:    logger,
	}
}

// SignupParams is what a new account is created from. ImageURL and Bio are
// optional and stay nil when not provided.
type SignupParams struct {
	Username string
	Password string
	ImageURL *string
	Bio      *string
}

// Signup creates a user with a hashed password and commits it.
//
// ORDER OF CHECKS:
//  1. Presence: username and password must both be non-empty
//  2. Hashing: the plaintext is hashed and immediately dropped
//  3. Commit: validation (blank username) and the UNIQUE constraint run in
//     the unit of work; any failure rolls the whole thing back
//
// Every failure is an apperror with ErrValidation or ErrIntegrity, which the
// handler renders as 422.
func (s *AuthService) Signup(ctx context.Context, p SignupParams) (*model.User, error) {
	if p.Username == "" || p.Password == "" {
		return nil, apperror.ValidationFailed("", MsgCredentialsRequired)
	}

	user := &model.User{
		Username: strings.TrimSpace(p.Username),
		ImageURL: p.ImageURL,
		Bio:      p.Bio,
	}
	if err := user.SetPassword(s.passwords, p.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	uow := s.store.Begin()
	uow.Insert(user)
	if err := uow.Commit(ctx); err != nil {
		uow.Rollback()
		s.logger.Info("signup rejected", "username", user.Username, "error", err)
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login returns the user whose username and password both match.
//
// Unknown usernames and wrong passwords return the same
// apperror.Unauthorized("Invalid credentials"), and both cost one bcrypt
// comparison, so neither the body nor the timing says which one was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.Burn(password)
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !user.Authenticate(s.passwords, password) {
		s.logger.Info("login failed", "user_id", user.ID)
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// CurrentUser loads the user a session points at. A user that no longer
// exists is reported as apperror.Unauthorized, the same as having no session.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgUnauthorized)
		}
		return nil, fmt.Errorf("service/auth: loading user %d: %w", userID, err)
	}
	return user, nil
}
