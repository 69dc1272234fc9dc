package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("conditional write conflict")
	ErrInactive = errors.New("group already inactive")
)
