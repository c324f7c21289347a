package ledger

import (
	"errors"

	"github.com/gurrammuni/jithu-bank/internal/interfaces"
)

// Domain errors returned by the engine. Every business-rule violation maps to
// one of these; only genuine infrastructure failures surface as
// ErrStoreUnavailable.
var (
	// ErrNotFound means the acting account does not exist.
	ErrNotFound = interfaces.ErrNotFound

	// ErrDuplicateUsername means signup chose a taken username.
	ErrDuplicateUsername = interfaces.ErrDuplicateUsername

	// ErrInvalidAmount means the amount was zero or negative (deposit), or did
	// not parse as a positive decimal (transfer).
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidCredential means the withdrawal PIN did not verify against the
	// account's credential hash.
	ErrInvalidCredential = errors.New("incorrect transaction PIN")

	// ErrInsufficientFunds covers withdrawal's combined failure: amount not
	// positive or exceeding the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds or invalid amount")

	// ErrInsufficientBalance means the sender cannot cover a transfer.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrRecipientNotFound means no account matches the transfer recipient's
	// username.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrStoreUnavailable means the underlying store failed or kept reporting
	// balance conflicts past the retry budget. Callers may treat it as
	// retryable.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)
