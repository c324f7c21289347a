package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gurrammuni/jithu-bank/internal/models"
)

// Mutation describes one account's part of an atomic ledger write: the balance
// transition plus the audit record that explains it. ExpectedBalance is the
// balance the caller read before computing NewBalance; a store must refuse the
// whole Apply call if the account's balance has moved since (lost-update
// guard), reporting ErrBalanceConflict.
type Mutation struct {
	AccountID       string
	ExpectedBalance decimal.Decimal
	NewBalance      decimal.Decimal
	Record          models.Transaction
}

// Store is the persistence contract for accounts and their transaction
// records. Implementations must make Apply atomic: every mutation in the call
// commits, or none does.
type Store interface {
	// CreateAccount inserts a new account with a zero balance. The first
	// account ever created is the admin; implementations must decide this
	// atomically so concurrent signups cannot both become admin. A taken
	// username fails with ErrDuplicateUsername.
	CreateAccount(ctx context.Context, username, credentialHash string) (models.Account, error)

	AccountByID(ctx context.Context, id string) (models.Account, error)
	AccountByUsername(ctx context.Context, username string) (models.Account, error)

	// Apply commits the given balance updates and record inserts as one unit.
	Apply(ctx context.Context, mutations ...Mutation) error

	// TransactionsByAccount returns the account's records in chronological
	// order (timestamp, then insertion order).
	TransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
}
