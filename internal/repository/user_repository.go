package repository

import (
	"context"
	"database/sql"
	"strings"

	"recipeshare/internal/model"
)

// UserRepo persists rows of the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const selectUserCols = "id,name,email,role,password_hash,created_at,updated_at"

// Create inserts a user with role 'user' and returns its ID.  The email
// must already be normalized and the password already hashed.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, role, password_hash) VALUES (?,?,?,?)",
		name, email, model.RoleUser, passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+selectUserCols+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+selectUserCols+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetAll returns every user ordered by id.
func (r *UserRepo) GetAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+selectUserCols+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserPatch carries the optional profile fields for Update.  Nil fields are
// left unchanged.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// Update applies a patch to a user row.  The SET clause is built only from
// present fields; a patch with no fields is a no-op.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) error {
	set := []string{}
	args := []any{}
	if p.Name != nil {
		set = append(set, "name=?")
		args = append(args, *p.Name)
	}
	if p.Email != nil {
		set = append(set, "email=?")
		args = append(args, *p.Email)
	}
	if p.PasswordHash != nil {
		set = append(set, "password_hash=?")
		args = append(args, *p.PasswordHash)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062).
func isDuplicate(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
