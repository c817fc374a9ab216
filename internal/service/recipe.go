package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/repository"
)

// Messages surfaced to clients.
const (
	MsgAllFieldsRequired = "all fields are required"
	MsgMinutesNotInteger = "minutes_to_complete must be an integer"
)

// RecipeService handles listing and creating recipes.
type RecipeService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(store repository.Store, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		store:  store,
		logger: logger,
	}
}

// CreateRecipeParams is a recipe as submitted by a client.
//
// MinutesToComplete is left untyped because clients send it as a number or
// as a numeric string; ParseMinutes decides what is acceptable. nil means the
// field was absent.
type CreateRecipeParams struct {
	Title             string
	Instructions      string
	MinutesToComplete any
}

// List returns every recipe with its owner attached, oldest first.
func (s *RecipeService) List(ctx context.Context) ([]model.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: listing recipes: %w", err)
	}
	return recipes, nil
}

// Create stores a recipe owned by userID and returns it with the owner attached.
//
// ORDER OF CHECKS:
//  1. Presence of title, instructions and minutes_to_complete
//  2. minutes_to_complete coerced to an integer
//  3. Commit: validation (blank title, short instructions) and the NOT NULL /
//     FOREIGN KEY constraints; any failure rolls the whole thing back
func (s *RecipeService) Create(ctx context.Context, userID int64, p CreateRecipeParams) (*model.Recipe, error) {
	if p.Title == "" || p.Instructions == "" || p.MinutesToComplete == nil {
		return nil, apperror.ValidationFailed("", MsgAllFieldsRequired)
	}

	minutes, err := ParseMinutes(p.MinutesToComplete)
	if err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		Title:             strings.TrimSpace(p.Title),
		Instructions:      p.Instructions,
		MinutesToComplete: minutes,
		UserID:            userID,
	}

	uow := s.store.Begin()
	uow.Insert(recipe)
	if err := uow.Commit(ctx); err != nil {
		uow.Rollback()
		s.logger.Info("recipe rejected", "user_id", userID, "error", err)
		return nil, err
	}

	// Read it back so the response carries the owner.
	created, err := s.store.GetRecipeByID(ctx, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: reloading recipe %d: %w", recipe.ID, err)
	}

	s.logger.Info("recipe created", "recipe_id", created.ID, "user_id", userID)
	return created, nil
}

// ParseMinutes coerces a decoded JSON value into whole minutes.
//
// Accepted:
//   - integers: 20
//   - numbers with a fractional part, truncated toward zero: 20.9 → 20
//   - strings holding an integer, surrounding whitespace ignored: " 20 " → 20
//
// Everything else (booleans, objects, "twenty", "20.5") is a validation error.
func ParseMinutes(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return intFromInt64(n)
	case float64:
		return intFromFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intFromInt64(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, minutesError()
		}
		return intFromFloat(f)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, minutesError()
		}
		return i, nil
	}
	return 0, minutesError()
}

func intFromInt64(i int64) (int, error) {
	if i > math.MaxInt || i < math.MinInt {
		return 0, minutesError()
	}
	return int(i), nil
}

func intFromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, minutesError()
	}
	return intFromInt64(int64(f))
}

func minutesError() *apperror.AppError {
	return apperror.ValidationFailed("minutes_to_complete", MsgMinutesNotInteger)
}
