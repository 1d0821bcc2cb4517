package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrEmailExists signals a duplicate email on insert.
	ErrEmailExists = errors.New("email already exists")
	// ErrPhoneExists signals a duplicate phone on insert.
	ErrPhoneExists = errors.New("phone already exists")
	// ErrDuplicateVote signals that the principal already supported a report.
	ErrDuplicateVote = errors.New("already voted")
)
