package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"recipeshare/internal/middleware"
	"recipeshare/internal/model"
	"recipeshare/internal/queue"
	"recipeshare/internal/repository"
	queue_publisher "recipeshare/internal/service"
)

// RecipeHandler bundles dependencies for the recipe endpoints.
type RecipeHandler struct {
	Recipes *repository.RecipeRepo
}

func NewRecipeHandler(r *repository.RecipeRepo) *RecipeHandler {
	return &RecipeHandler{Recipes: r}
}

type recipeReq struct {
	Title             string   `json:"title"`
	Ingredients       []string `json:"ingredients"`
	IngredientsSetTwo []string `json:"ingredientsSetTwo"`
	Instructions      string   `json:"instructions"`
	Category          string   `json:"category"`
	Notes             string   `json:"notes"`
}

// Create stores a new recipe owned by the authenticated user.
func (h *RecipeHandler) Create(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req recipeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if len(req.Ingredients) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredients are required"})
	}
	if strings.TrimSpace(req.Instructions) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructions are required"})
	}
	if strings.TrimSpace(req.Category) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category is required"})
	}

	rec := model.Recipe{
		Title:             req.Title,
		Ingredients:       req.Ingredients,
		IngredientsSetTwo: req.IngredientsSetTwo,
		Instructions:      req.Instructions,
		Category:          req.Category,
		Notes:             req.Notes,
		OwnerID:           u.ID,
		Owner:             &model.RecipeOwner{ID: u.ID, Name: u.Name, Role: u.Role},
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Recipes.Create(ctx, &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create recipe failed"})
	}

	go func() {
		_ = queue_publisher.PublishActivity(context.Background(), queue.ActivityEvent{
			Type:        queue.EventRecipeCreated,
			UserID:      u.ID,
			UserName:    u.Name,
			RecipeID:    rec.ID,
			RecipeTitle: rec.Title,
			OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusCreated, rec)
}

// List pages through visible recipes.  Ordinary users never see recipes
// owned by admin accounts; admins see everything.
func (h *RecipeHandler) List(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := parsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recipes, total, err := h.Recipes.List(ctx, repository.RecipeListQuery{
		HideAdminOwned: u.Role != model.RoleAdmin,
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, pagedResp(recipes, total, page, limit))
}

// Search pages through visible recipes whose title, category or any
// ingredient entry contains ?q, case-insensitively.  Totals are computed
// over the same filtered set as the page.
func (h *RecipeHandler) Search(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := parsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	recipes, total, err := h.Recipes.List(ctx, repository.RecipeListQuery{
		Search:         c.QueryParam("q"),
		HideAdminOwned: u.Role != model.RoleAdmin,
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, pagedResp(recipes, total, page, limit))
}

// GetByID returns one recipe with its owner annotation.  A non-numeric id
// is a request-level failure, not a 404.
func (h *RecipeHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Recipes.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.NoContent(http.StatusNotFound)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, rec)
}

// recipeUpdateFields is the whitelist for PATCH /recipes/:id.
var recipeUpdateFields = map[string]bool{
	"title":             true,
	"ingredients":       true,
	"ingredientsSetTwo": true,
	"instructions":      true,
	"category":          true,
	"notes":             true,
}

// Update patches a recipe.  Only admins may update, and the lookup is
// owner-scoped, so even an admin gets a 404 for a recipe they do not own.
// Non-admins are rejected before any ownership check.
func (h *RecipeHandler) Update(c echo.Context) error {
	u, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if u.Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Only admins can update recipes."})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalid id"})
	}

	var body map[string]json.RawMessage
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	for k := range body {
		if !recipeUpdateFields[k] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid updates!"})
		}
	}

	var patch repository.RecipePatch
	strField := func(key string, required bool) (*string, bool) {
		raw := body[key]
		if raw == nil {
			return nil, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		if required && strings.TrimSpace(s) == "" {
			return nil, false
		}
		return &s, true
	}

	var valid bool
	if patch.Title, valid = strField("title", true); !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if patch.Instructions, valid = strField("instructions", true); !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "instructions are required"})
	}
	if patch.Category, valid = strField("category", true); !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category is required"})
	}
	if patch.Notes, valid = strField("notes", false); !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if raw := body["ingredients"]; raw != nil {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredients are required"})
		}
		patch.Ingredients = &list
	}
	if raw := body["ingredientsSetTwo"]; raw != nil {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		patch.IngredientsSetTwo = &list
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Recipes.UpdateOwned(ctx, id, u.ID, patch); err != nil {
		if err == sql.ErrNoRows {
			return c.NoContent(http.StatusNotFound)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	rec, err := h.Recipes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, rec)
}
