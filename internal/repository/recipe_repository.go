package repository

import (
	"context"
	"database/sql"
	"strings"

	"recipeshare/internal/model"
)

// RecipeRepo persists recipes and their ingredient lists.  Ingredients live
// in the 'recipe_ingredients' child table (set_two flag + position) so that
// search can match individual entries.
type RecipeRepo struct{ DB *sql.DB }

func NewRecipeRepo(db *sql.DB) *RecipeRepo { return &RecipeRepo{DB: db} }

// RecipeListQuery defines filters & pagination for listing recipes.
type RecipeListQuery struct {
	Search         string   // case-insensitive substring; empty = no text filter
	HideAdminOwned bool     // true for non-admin viewers
	OnlyIDs        []uint64 // restrict to this id set (bookmarks); nil = unrestricted
	Page           int
	Limit          int
}

// Create inserts a recipe and its ingredient rows in one transaction and
// fills in the new id.
func (r *RecipeRepo) Create(ctx context.Context, rec *model.Recipe) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO recipes (title, instructions, category, notes, owner_id) VALUES (?,?,?,?,?)",
		rec.Title, rec.Instructions, rec.Category, nullable(rec.Notes), rec.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)

	if err := insertIngredients(ctx, tx, rec.ID, false, rec.Ingredients); err != nil {
		return err
	}
	if err := insertIngredients(ctx, tx, rec.ID, true, rec.IngredientsSetTwo); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches one recipe with its owner projection and ingredients.
// Returns sql.ErrNoRows when no such recipe exists.
func (r *RecipeRepo) GetByID(ctx context.Context, id uint64) (model.Recipe, error) {
	var (
		rec   model.Recipe
		owner model.RecipeOwner
		notes sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT r.id, r.title, r.instructions, r.category, r.notes, r.owner_id, u.name, u.role
		FROM recipes r
		JOIN users u ON u.id = r.owner_id
		WHERE r.id=? LIMIT 1`,
		id).Scan(&rec.ID, &rec.Title, &rec.Instructions, &rec.Category, &notes, &rec.OwnerID, &owner.Name, &owner.Role)
	if err != nil {
		return model.Recipe{}, err
	}
	rec.Notes = notes.String
	owner.ID = rec.OwnerID
	rec.Owner = &owner

	lists, err := r.loadIngredients(ctx, []uint64{rec.ID})
	if err != nil {
		return model.Recipe{}, err
	}
	rec.Ingredients = lists[rec.ID][0]
	rec.IngredientsSetTwo = lists[rec.ID][1]
	return rec, nil
}

// List returns one page of recipes matching the query plus the total count
// over the matched set.  Role visibility, text search and the bookmark
// restriction all apply to both the count and the page.
func (r *RecipeRepo) List(ctx context.Context, q RecipeListQuery) ([]model.Recipe, int64, error) {
	// An empty bookmark restriction can never match anything.
	if q.OnlyIDs != nil && len(q.OnlyIDs) == 0 {
		return []model.Recipe{}, 0, nil
	}

	where := []string{}
	args := []any{}

	if q.HideAdminOwned {
		where = append(where, "u.role <> 'admin'")
	}
	if q.Search != "" {
		pat := "%" + strings.ToLower(q.Search) + "%"
		where = append(where,
			`(LOWER(r.title) LIKE ? OR LOWER(r.category) LIKE ?
			OR EXISTS (SELECT 1 FROM recipe_ingredients i WHERE i.recipe_id = r.id AND LOWER(i.value) LIKE ?))`)
		args = append(args, pat, pat, pat)
	}
	if q.OnlyIDs != nil {
		where = append(where, "r.id IN ("+placeholders(len(q.OnlyIDs))+")")
		for _, id := range q.OnlyIDs {
			args = append(args, id)
		}
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM recipes r
		JOIN users u ON u.id = r.owner_id
		WHERE ` + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	offset := (q.Page - 1) * q.Limit

	dataSQL := `SELECT r.id, r.title, r.instructions, r.category, r.notes, r.owner_id, u.name, u.role
		FROM recipes r
		JOIN users u ON u.id = r.owner_id
		WHERE ` + cond + `
		ORDER BY r.id ASC
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Recipe, 0, limit)
	ids := make([]uint64, 0, limit)
	for rows.Next() {
		var (
			rec   model.Recipe
			owner model.RecipeOwner
			notes sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Instructions, &rec.Category, &notes, &rec.OwnerID, &owner.Name, &owner.Role); err != nil {
			return nil, 0, err
		}
		rec.Notes = notes.String
		owner.ID = rec.OwnerID
		rec.Owner = &owner
		out = append(out, rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		lists, err := r.loadIngredients(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range out {
			out[i].Ingredients = lists[out[i].ID][0]
			out[i].IngredientsSetTwo = lists[out[i].ID][1]
		}
	}
	return out, total, nil
}

// RecipePatch carries the optional fields for UpdateOwned.  Nil fields are
// left unchanged; a non-nil ingredient slice replaces that list wholesale.
type RecipePatch struct {
	Title             *string
	Instructions      *string
	Category          *string
	Notes             *string
	Ingredients       *[]string
	IngredientsSetTwo *[]string
}

// UpdateOwned patches a recipe only when it belongs to ownerID; otherwise
// sql.ErrNoRows is returned and nothing changes.  The owner column itself
// is never touched.
func (r *RecipeRepo) UpdateOwned(ctx context.Context, id, ownerID uint64, p RecipePatch) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var found uint64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM recipes WHERE id=? AND owner_id=? LIMIT 1",
		id, ownerID).Scan(&found)
	if err != nil {
		return err
	}

	set := []string{}
	args := []any{}
	if p.Title != nil {
		set = append(set, "title=?")
		args = append(args, *p.Title)
	}
	if p.Instructions != nil {
		set = append(set, "instructions=?")
		args = append(args, *p.Instructions)
	}
	if p.Category != nil {
		set = append(set, "category=?")
		args = append(args, *p.Category)
	}
	if p.Notes != nil {
		set = append(set, "notes=?")
		args = append(args, nullable(*p.Notes))
	}
	if len(set) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE recipes SET "+strings.Join(set, ", ")+" WHERE id=?", args...); err != nil {
			return err
		}
	}

	if p.Ingredients != nil {
		if err := replaceIngredients(ctx, tx, id, false, *p.Ingredients); err != nil {
			return err
		}
	}
	if p.IngredientsSetTwo != nil {
		if err := replaceIngredients(ctx, tx, id, true, *p.IngredientsSetTwo); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// loadIngredients fetches the ingredient lists for a set of recipe ids.
// Index 0 of the value holds the primary list, index 1 the secondary one.
func (r *RecipeRepo) loadIngredients(ctx context.Context, ids []uint64) (map[uint64][2][]string, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT recipe_id, set_two, value FROM recipe_ingredients WHERE recipe_id IN ("+placeholders(len(ids))+") ORDER BY recipe_id, set_two, position",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][2][]string, len(ids))
	for rows.Next() {
		var (
			rid    uint64
			setTwo bool
			value  string
		)
		if err := rows.Scan(&rid, &setTwo, &value); err != nil {
			return nil, err
		}
		lists := out[rid]
		if setTwo {
			lists[1] = append(lists[1], value)
		} else {
			lists[0] = append(lists[0], value)
		}
		out[rid] = lists
	}
	return out, rows.Err()
}

func insertIngredients(ctx context.Context, tx *sql.Tx, recipeID uint64, setTwo bool, values []string) error {
	for i, v := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, set_two, position, value) VALUES (?,?,?,?)",
			recipeID, setTwo, i, v); err != nil {
			return err
		}
	}
	return nil
}

func replaceIngredients(ctx context.Context, tx *sql.Tx, recipeID uint64, setTwo bool, values []string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM recipe_ingredients WHERE recipe_id=? AND set_two=?",
		recipeID, setTwo); err != nil {
		return err
	}
	return insertIngredients(ctx, tx, recipeID, setTwo, values)
}

// placeholders returns "?,?,...,?" with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// nullable maps an empty string onto SQL NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
