package model

import "time"

// Role values stored in users.role.  Ordinary accounts are created as
// RoleUser; RoleAdmin is never client-settable.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application user record as stored in the `users`
// table.  The password hash and session tokens never leave the server;
// handlers respond with the Public projection instead.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name, non-empty.
//	Email        – unique email address, stored lowercase.
//	Role         – "user" or "admin".
//	PasswordHash – bcrypt hashed password.
//	Bookmarks    – ids of recipes the user has saved.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Name         string
	Email        string
	Role         string
	PasswordHash string
	Bookmarks    []uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the safe projection of a User sent over the wire.  It
// carries no password or token material.
type PublicUser struct {
	ID        uint64   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	Bookmarks []uint64 `json:"bookmarks"`
}

// Public strips the credential fields from a User.  Bookmarks are always
// serialized as an array, never null.
func (u *User) Public() PublicUser {
	b := u.Bookmarks
	if b == nil {
		b = []uint64{}
	}
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Bookmarks: b}
}

// AuthToken models a row in the `auth_tokens` table.  Each row is one live
// session; the plain token is not stored, only its SHA-256 hash.  A token
// is valid until its row is revoked by logout or logoutAll.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the session.
//	TokenHash – SHA-256 hex digest of the token string.
//	RevokedAt – when the session was revoked (null while active).
//	CreatedAt – timestamp of creation.
type AuthToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	RevokedAt *time.Time
	CreatedAt time.Time
}
