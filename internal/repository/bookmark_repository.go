package repository

import (
	"context"
	"database/sql"
)

// BookmarkRepo persists the (user_id, recipe_id) pairs of the 'bookmarks'
// table.  The composite primary key keeps the set free of duplicates.
type BookmarkRepo struct{ DB *sql.DB }

func NewBookmarkRepo(db *sql.DB) *BookmarkRepo { return &BookmarkRepo{DB: db} }

// ListIDs returns the ids of all recipes the user has bookmarked, oldest
// bookmark first.
func (r *BookmarkRepo) ListIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT recipe_id FROM bookmarks WHERE user_id=? ORDER BY created_at, recipe_id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Replace swaps the user's bookmark set wholesale inside one transaction.
// Duplicate ids in the input collapse to a single row.
func (r *BookmarkRepo) Replace(ctx context.Context, userID uint64, recipeIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM bookmarks WHERE user_id=?", userID); err != nil {
		return err
	}
	seen := make(map[uint64]bool, len(recipeIDs))
	for _, id := range recipeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bookmarks (user_id, recipe_id) VALUES (?,?)",
			userID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
