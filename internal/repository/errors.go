// Package repository implements data access over the MySQL pool.  Sentinel
// errors declared here let handlers map storage failures onto HTTP
// statuses without inspecting driver error strings.  Row absence is
// reported as sql.ErrNoRows throughout.
package repository

import "errors"

// ErrEmailExists is returned when an insert or update would violate the
// unique email constraint.  Handlers translate this into an HTTP 400.
var ErrEmailExists = errors.New("email already exists")
