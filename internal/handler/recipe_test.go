package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"recipeshare/internal/middleware"
	"recipeshare/internal/model"
	"recipeshare/internal/repository"
)

func newRecipeHandler(t *testing.T) (*RecipeHandler, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	h := NewRecipeHandler(repository.NewRecipeRepo(db))
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return h, mock, cleanup
}

func TestRecipeCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"ingredients":["rice"],"instructions":"Cook.","category":"dinner"}`},
		{"missing ingredients", `{"title":"Rice","instructions":"Cook.","category":"dinner"}`},
		{"missing instructions", `{"title":"Rice","ingredients":["rice"],"category":"dinner"}`},
		{"missing category", `{"title":"Rice","ingredients":["rice"],"instructions":"Cook."}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, cleanup := newRecipeHandler(t)
			defer cleanup()

			c, rec := jsonCtx(http.MethodPost, "/recipes", tt.body)
			c.Set(middleware.CtxUser, &model.User{ID: 1, Name: "test", Role: "user"})
			if err := h.Create(c); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRecipeListEnvelope(t *testing.T) {
	h, mock, cleanup := newRecipeHandler(t)
	defer cleanup()

	dataCols := []string{"id", "title", "instructions", "category", "notes", "owner_id", "name", "role"}
	// The non-admin viewer gets the role-filtered count and page.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)[\\s\\S]*u\\.role <> 'admin'").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT r\\.id, r\\.title[\\s\\S]*u\\.role <> 'admin'").
		WithArgs(2, 0).
		WillReturnRows(sqlmock.NewRows(dataCols).
			AddRow(1, "Pancakes", "Mix.", "breakfast", nil, 1, "test", "user").
			AddRow(2, "Soup", "Boil.", "dinner", nil, 2, "other", "user"))
	mock.ExpectQuery("FROM recipe_ingredients").
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id", "set_two", "value"}).
			AddRow(1, false, "flour").
			AddRow(2, false, "water"))

	c, rec := jsonCtx(http.MethodGet, "/recipes?page=1&limit=2", "")
	c.Set(middleware.CtxUser, &model.User{ID: 1, Name: "test", Role: "user"})
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Total int64          `json:"total"`
		Page  int            `json:"page"`
		Pages int            `json:"pages"`
		Data  []model.Recipe `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 || resp.Page != 1 || resp.Pages != 2 {
		t.Fatalf("envelope = total %d page %d pages %d", resp.Total, resp.Page, resp.Pages)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("data len = %d", len(resp.Data))
	}
	if resp.Data[0].Owner == nil || resp.Data[0].Owner.Name != "test" {
		t.Fatalf("owner = %+v", resp.Data[0].Owner)
	}
}

func TestRecipeSearchPassesQuery(t *testing.T) {
	h, mock, cleanup := newRecipeHandler(t)
	defer cleanup()

	pat := "%dinner%"
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs(pat, pat, pat).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT r\\.id, r\\.title").
		WithArgs(pat, pat, pat, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "instructions", "category", "notes", "owner_id", "name", "role"}).
			AddRow(2, "Soup", "Boil.", "Dinner", nil, 2, "other", "admin"))
	mock.ExpectQuery("FROM recipe_ingredients").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id", "set_two", "value"}).
			AddRow(2, false, "water"))

	// The admin viewer searches the unfiltered set.
	c, rec := jsonCtx(http.MethodGet, "/recipes/search?q=Dinner", "")
	c.Set(middleware.CtxUser, &model.User{ID: 2, Name: "other", Role: "admin"})
	if err := h.Search(c); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Soup") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRecipeGetByIDMalformed(t *testing.T) {
	h, _, cleanup := newRecipeHandler(t)
	defer cleanup()

	c, rec := jsonCtx(http.MethodGet, "/recipes/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := h.GetByID(c); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRecipeGetByIDMissing(t *testing.T) {
	h, mock, cleanup := newRecipeHandler(t)
	defer cleanup()

	mock.ExpectQuery("SELECT r\\.id, r\\.title").
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	c, rec := jsonCtx(http.MethodGet, "/recipes/99", "")
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.GetByID(c); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRecipeUpdateForbiddenForUsers(t *testing.T) {
	h, _, cleanup := newRecipeHandler(t)
	defer cleanup()

	// Role is checked before the body or the ownership lookup.
	c, rec := jsonCtx(http.MethodPatch, "/recipes/5", `{"title":"New"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set(middleware.CtxUser, &model.User{ID: 1, Role: "user"})
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only admins can update recipes.") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRecipeUpdateRejectsUnknownField(t *testing.T) {
	h, _, cleanup := newRecipeHandler(t)
	defer cleanup()

	c, rec := jsonCtx(http.MethodPatch, "/recipes/5", `{"owner":1}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set(middleware.CtxUser, &model.User{ID: 2, Role: "admin"})
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid updates!") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRecipeUpdateNotOwned(t *testing.T) {
	h, mock, cleanup := newRecipeHandler(t)
	defer cleanup()

	// Admins only reach recipes they own; anything else reads as absent.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM recipes WHERE id=\\? AND owner_id=\\?").
		WithArgs(uint64(5), uint64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPatch, "/recipes/5", `{"title":"New"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set(middleware.CtxUser, &model.User{ID: 2, Role: "admin"})
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRecipeUpdateOwned(t *testing.T) {
	h, mock, cleanup := newRecipeHandler(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM recipes WHERE id=\\? AND owner_id=\\?").
		WithArgs(uint64(5), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("UPDATE recipes SET title=\\? WHERE id=\\?").
		WithArgs("New title", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	// The handler replies with the freshly loaded recipe.
	mock.ExpectQuery("SELECT r\\.id, r\\.title").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "instructions", "category", "notes", "owner_id", "name", "role"}).
			AddRow(5, "New title", "Cook.", "dinner", nil, 2, "other", "admin"))
	mock.ExpectQuery("FROM recipe_ingredients").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id", "set_two", "value"}).
			AddRow(5, false, "rice"))

	c, rec := jsonCtx(http.MethodPatch, "/recipes/5", `{"title":"New title"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set(middleware.CtxUser, &model.User{ID: 2, Role: "admin"})
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var out model.Recipe
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Title != "New title" || len(out.Ingredients) != 1 {
		t.Fatalf("recipe = %+v", out)
	}
}
