package interfaces

import "errors"

var (
	// ErrNotFound means the requested account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateUsername means the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrBalanceConflict means a mutation's expected balance no longer matched
	// the stored balance. The caller may re-read and retry.
	ErrBalanceConflict = errors.New("balance changed since read")
)
