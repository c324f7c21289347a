// Package ledger implements the engine through which all balance mutations
// flow. Every accepted operation commits a balance update together with its
// audit record (two of each for transfers) as a single atomic unit against
// the backing store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gurrammuni/jithu-bank/internal/auth"
	"github.com/gurrammuni/jithu-bank/internal/interfaces"
	"github.com/gurrammuni/jithu-bank/internal/models"
	"github.com/gurrammuni/jithu-bank/internal/models/events"
)

// TopicLedgerOperations receives one OperationCompleted event per committed
// transaction record.
const TopicLedgerOperations = "ledger_operations"

// maxConflictRetries bounds how often an operation re-reads and re-applies
// after the store reports a balance conflict before giving up with
// ErrStoreUnavailable.
const maxConflictRetries = 3

// Ledger serializes balance mutations per account with a mutex map and
// commits each operation through the store's atomic Apply. A shared store
// may additionally reject stale writes via the mutation's expected balance,
// which the engine retries.
type Ledger struct {
	store interfaces.Store
	pub   interfaces.EventPublisher

	muMap map[string]*sync.Mutex // per-account locks
	mapMu sync.Mutex             // protects muMap itself
}

// New builds a Ledger over the given store. pub may be nil; committed
// operations are then not announced.
func New(store interfaces.Store, pub interfaces.EventPublisher) *Ledger {
	return &Ledger{
		store: store,
		pub:   pub,
		muMap: make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) accountLock(accountID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// CreateAccount registers a new account with a zero balance. The store
// decides atomically whether this is the first account ever and therefore
// the admin.
func (l *Ledger) CreateAccount(ctx context.Context, username, credentialHash string) (models.Account, error) {
	acct, err := l.store.CreateAccount(ctx, username, credentialHash)
	if err != nil {
		return models.Account{}, storeErr(err)
	}
	return acct, nil
}

// AccountByID returns the current snapshot of an account.
func (l *Ledger) AccountByID(ctx context.Context, accountID string) (models.Account, error) {
	acct, err := l.store.AccountByID(ctx, accountID)
	if err != nil {
		return models.Account{}, storeErr(err)
	}
	return acct, nil
}

// AccountByUsername returns the current snapshot of the named account.
func (l *Ledger) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	acct, err := l.store.AccountByUsername(ctx, username)
	if err != nil {
		return models.Account{}, storeErr(err)
	}
	return acct, nil
}

// Deposit credits amount to the account and records it. The amount must be
// strictly positive.
func (l *Ledger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (models.Account, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return models.Account{}, ErrInvalidAmount
	}

	mu := l.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		acct, err := l.store.AccountByID(ctx, accountID)
		if err != nil {
			return models.Account{}, storeErr(err)
		}

		newBalance := acct.Balance.Add(amount)
		record := newRecord(accountID, models.KindDeposit, amount, newBalance, time.Now().UTC())

		err = l.store.Apply(ctx, interfaces.Mutation{
			AccountID:       accountID,
			ExpectedBalance: acct.Balance,
			NewBalance:      newBalance,
			Record:          record,
		})
		if errors.Is(err, interfaces.ErrBalanceConflict) {
			continue
		}
		if err != nil {
			return models.Account{}, storeErr(err)
		}

		acct.Balance = newBalance
		l.publish(record)
		return acct, nil
	}
	return models.Account{}, retriesExhausted()
}

// Withdraw debits amount from the account after verifying the transaction
// PIN against the account's credential hash. The PIN is checked first; an
// amount that is not positive or exceeds the balance fails with
// ErrInsufficientFunds. No failure leaves any state change behind.
func (l *Ledger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, credential string) (models.Account, error) {
	mu := l.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		acct, err := l.store.AccountByID(ctx, accountID)
		if err != nil {
			return models.Account{}, storeErr(err)
		}

		if !auth.CheckCredential(acct.CredentialHash, credential) {
			return models.Account{}, ErrInvalidCredential
		}
		if amount.Cmp(decimal.Zero) <= 0 || acct.Balance.Cmp(amount) < 0 {
			return models.Account{}, ErrInsufficientFunds
		}

		newBalance := acct.Balance.Sub(amount)
		record := newRecord(accountID, models.KindWithdraw, amount, newBalance, time.Now().UTC())

		err = l.store.Apply(ctx, interfaces.Mutation{
			AccountID:       accountID,
			ExpectedBalance: acct.Balance,
			NewBalance:      newBalance,
			Record:          record,
		})
		if errors.Is(err, interfaces.ErrBalanceConflict) {
			continue
		}
		if err != nil {
			return models.Account{}, storeErr(err)
		}

		acct.Balance = newBalance
		l.publish(record)
		return acct, nil
	}
	return models.Account{}, retriesExhausted()
}

// Transfer moves amount from the sender to the account named by
// recipientUsername. Both balance updates and both audit records commit as
// one unit, sharing a single timestamp. Sender and recipient may be the same
// account; the net balance change is then zero but both records are still
// written.
func (l *Ledger) Transfer(ctx context.Context, senderID, recipientUsername string, amount decimal.Decimal) (models.Account, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return models.Account{}, ErrInvalidAmount
	}

	recipient, err := l.store.AccountByUsername(ctx, recipientUsername)
	if errors.Is(err, interfaces.ErrNotFound) {
		return models.Account{}, ErrRecipientNotFound
	}
	if err != nil {
		return models.Account{}, storeErr(err)
	}

	// Lock both accounts in ascending ID order so two opposing transfers
	// between the same pair cannot deadlock. A self-transfer takes the lock
	// once.
	senderMu := l.accountLock(senderID)
	recipientMu := l.accountLock(recipient.ID)
	switch {
	case senderID == recipient.ID:
		senderMu.Lock()
		defer senderMu.Unlock()
	case senderID < recipient.ID:
		senderMu.Lock()
		recipientMu.Lock()
		defer recipientMu.Unlock()
		defer senderMu.Unlock()
	default:
		recipientMu.Lock()
		senderMu.Lock()
		defer senderMu.Unlock()
		defer recipientMu.Unlock()
	}

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		sender, err := l.store.AccountByID(ctx, senderID)
		if err != nil {
			return models.Account{}, storeErr(err)
		}
		recipient, err = l.store.AccountByID(ctx, recipient.ID)
		if err != nil {
			return models.Account{}, storeErr(err)
		}

		if sender.Balance.Cmp(amount) < 0 {
			return models.Account{}, ErrInsufficientBalance
		}

		now := time.Now().UTC()
		senderNew := sender.Balance.Sub(amount)

		// For a self-transfer the credit applies on top of the debit, so its
		// expected balance is the debited one.
		recipientExpected := recipient.Balance
		if recipient.ID == sender.ID {
			recipientExpected = senderNew
		}
		recipientNew := recipientExpected.Add(amount)

		sent := newRecord(sender.ID, models.KindTransferSent, amount, senderNew, now)
		received := newRecord(recipient.ID, models.KindTransferReceived, amount, recipientNew, now)

		err = l.store.Apply(ctx,
			interfaces.Mutation{
				AccountID:       sender.ID,
				ExpectedBalance: sender.Balance,
				NewBalance:      senderNew,
				Record:          sent,
			},
			interfaces.Mutation{
				AccountID:       recipient.ID,
				ExpectedBalance: recipientExpected,
				NewBalance:      recipientNew,
				Record:          received,
			},
		)
		if errors.Is(err, interfaces.ErrBalanceConflict) {
			continue
		}
		if err != nil {
			return models.Account{}, storeErr(err)
		}

		sender.Balance = senderNew
		if sender.ID == recipient.ID {
			sender.Balance = recipientNew
		}
		l.publish(sent)
		l.publish(received)
		return sender, nil
	}
	return models.Account{}, retriesExhausted()
}

// ListTransactions returns the account's audit records in chronological
// order.
func (l *Ledger) ListTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if _, err := l.store.AccountByID(ctx, accountID); err != nil {
		return nil, storeErr(err)
	}
	txns, err := l.store.TransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, storeErr(err)
	}
	return txns, nil
}

func newRecord(accountID string, kind models.Kind, amount, balance decimal.Decimal, at time.Time) models.Transaction {
	return models.Transaction{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		Balance:   balance,
		CreatedAt: at,
	}
}

// publish announces a committed record. Publishing is best effort: the
// operation has already committed, so a broker failure is logged, not
// surfaced.
func (l *Ledger) publish(record models.Transaction) {
	if l.pub == nil {
		return
	}
	event := events.OperationCompleted{
		TransactionID: record.ID,
		AccountID:     record.AccountID,
		Kind:          record.Kind,
		Amount:        record.Amount,
		Balance:       record.Balance,
		OccurredAt:    record.CreatedAt,
	}
	if err := l.pub.Publish(TopicLedgerOperations, record.AccountID, event); err != nil {
		slog.Warn("failed to publish ledger event", "transaction_id", record.ID, "error", err)
	}
}

// storeErr passes domain sentinels through and folds everything else into
// ErrStoreUnavailable.
func storeErr(err error) error {
	if errors.Is(err, interfaces.ErrNotFound) || errors.Is(err, interfaces.ErrDuplicateUsername) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func retriesExhausted() error {
	return fmt.Errorf("%w: balance conflict retries exhausted", ErrStoreUnavailable)
}
