package storage

import "errors"

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate: entity already exists")

	// ErrConditionFailed is returned by guarded updates whose precondition no
	// longer holds (for example a second rating from the same user).
	ErrConditionFailed = errors.New("update precondition failed")
)
