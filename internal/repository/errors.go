// Package repository implements the persistence layer over MySQL.
// This file defines sentinel error values reused across repositories
// so that higher layers can distinguish failure scenarios with
// errors.Is.  Missing rows are reported as sql.ErrNoRows like the
// standard library does.
package repository

import "errors"

// ErrConflict is returned when a write cannot proceed because the
// row's state moved underneath the caller: an optimistic status update
// whose expected status no longer matches, or a table claimed by a
// competing reservation inside the booking transaction.
var ErrConflict = errors.New("conflict")

// ErrNumberExists is returned when creating a table whose number is
// already taken.  Table numbers are unique across the floor.
var ErrNumberExists = errors.New("table number already exists")
