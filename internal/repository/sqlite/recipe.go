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

var _ repository.RecipeRepository = (*DB)(nil)

// recipeSelect joins the owner so every recipe comes back with User filled in.
// LEFT JOIN: a recipe is still listed (with a nil User) if the owner row is gone.
const recipeSelect = `
	SELECT r.id, r.title, r.instructions, r.minutes_to_complete, r.user_id,
	       u.id, u.username, u.image_url, u.bio
	FROM recipes r
	LEFT JOIN users u ON u.id = r.user_id`

// insertRecipe writes one recipe inside the commit transaction.
//
// A zero UserID is sent as NULL so the NOT NULL constraint fires instead of
// a foreign key lookup for user 0.
func insertRecipe(ctx context.Context, q dbtx, recipe *model.Recipe) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO recipes (title, instructions, minutes_to_complete, user_id)
		 VALUES (?, ?, ?, ?)`,
		recipe.Title,
		recipe.Instructions,
		recipe.MinutesToComplete,
		sql.NullInt64{Int64: recipe.UserID, Valid: recipe.UserID != 0},
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: inserting recipe %q: %w", recipe.Title, translateConstraint(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading new recipe id: %w", err)
	}
	return id, nil
}

// GetRecipeByID retrieves one recipe with its owner.
func (db *DB) GetRecipeByID(ctx context.Context, id int64) (*model.Recipe, error) {
	rows, err := db.conn.QueryContext(ctx, recipeSelect+` WHERE r.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting recipe %d: %w", id, err)
	}

	recipes, err := collectRecipes(rows, 1)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, apperror.NotFound("recipe", strconv.FormatInt(id, 10))
	}
	return &recipes[0], nil
}

// ListRecipes returns every recipe, oldest first.
func (db *DB) ListRecipes(ctx context.Context) ([]model.Recipe, error) {
	rows, err := db.conn.QueryContext(ctx, recipeSelect+` ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	return collectRecipes(rows, 0)
}

// ListRecipesByUser is the user → recipes direction of the relationship.
// There is no recipe collection on model.User; callers ask for it here.
func (db *DB) ListRecipesByUser(ctx context.Context, userID int64) ([]model.Recipe, error) {
	rows, err := db.conn.QueryContext(ctx,
		recipeSelect+` WHERE r.user_id = ? ORDER BY r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes for user %d: %w", userID, err)
	}
	return collectRecipes(rows, 0)
}

// collectRecipes scans and closes rows. sizeHint pre-allocates the slice.
func collectRecipes(rows *sql.Rows, sizeHint int) ([]model.Recipe, error) {
	defer rows.Close()

	recipes := make([]model.Recipe, 0, sizeHint)
	for rows.Next() {
		var (
			r        model.Recipe
			ownerID  sql.NullInt64
			username sql.NullString
			imageURL sql.NullString
			bio      sql.NullString
		)
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Instructions, &r.MinutesToComplete, &r.UserID,
			&ownerID, &username, &imageURL, &bio,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}

		if ownerID.Valid {
			r.User = &model.User{
				ID:       ownerID.Int64,
				Username: username.String,
				ImageURL: nullableString(imageURL),
				Bio:      nullableString(bio),
			}
		}
		recipes = append(recipes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	return recipes, nil
}
