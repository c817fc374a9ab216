package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-box/internal/apperror"
	"github.com/sakif/recipe-box/internal/auth"
	"github.com/sakif/recipe-box/internal/model"
	"github.com/sakif/recipe-box/internal/service"
)

// RecipeHandler handles HTTP requests for recipes. Both routes sit behind
// SessionManager.RequireAuth.
type RecipeHandler struct {
	recipes *service.RecipeService
	logger  *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(recipes *service.RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		logger:  logger,
	}
}

// createRecipeRequest mirrors the JSON body of POST /recipes.
//
// MinutesToComplete is any because clients send both 20 and "20"; the
// service decides which values count as an integer.
type createRecipeRequest struct {
	Title             string `json:"title"`
	Instructions      string `json:"instructions"`
	MinutesToComplete any    `json:"minutes_to_complete"`
}

// HandleList returns every recipe with its owner.
//
// HTTP: GET /recipes
// Response: 200 + [recipe payload, ...] (an empty list is [])
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.RecipePayloads(recipes))
}

// HandleCreate creates a recipe owned by the logged-in user.
//
// HTTP: POST /recipes
// Body: {"title": "...", "instructions": "...", "minutes_to_complete": 20}
// Response: 201 + recipe payload, or 422 {"errors": [...]}
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized(service.MsgUnauthorized))
		return
	}

	var req createRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	recipe, err := h.recipes.Create(r.Context(), userID, service.CreateRecipeParams{
		Title:             req.Title,
		Instructions:      req.Instructions,
		MinutesToComplete: req.MinutesToComplete,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, recipe.Payload())
}
