// Package memory is the in-memory implementation of interfaces.Store. It
// backs tests and broker-less local runs; a single mutex makes every call,
// including multi-account Apply, atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gurrammuni/jithu-bank/internal/interfaces"
	"github.com/gurrammuni/jithu-bank/internal/models"
)

type Store struct {
	mu         sync.Mutex
	accounts   map[string]*models.Account // account ID -> account
	byUsername map[string]string          // username -> account ID
	records    map[string][]models.Transaction
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*models.Account),
		byUsername: make(map[string]string),
		records:    make(map[string][]models.Transaction),
	}
}

// CreateAccount inserts a new account. The admin decision happens under the
// store mutex, so even concurrent signups produce exactly one admin.
func (s *Store) CreateAccount(ctx context.Context, username, credentialHash string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[username]; taken {
		return models.Account{}, interfaces.ErrDuplicateUsername
	}

	acct := &models.Account{
		ID:             uuid.New().String(),
		Username:       username,
		CredentialHash: credentialHash,
		Balance:        decimal.Zero,
		IsAdmin:        len(s.accounts) == 0,
		CreatedAt:      time.Now().UTC(),
	}
	s.accounts[acct.ID] = acct
	s.byUsername[username] = acct.ID
	return *acct, nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return models.Account{}, interfaces.ErrNotFound
	}
	return *acct, nil
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[username]
	if !ok {
		return models.Account{}, interfaces.ErrNotFound
	}
	return *s.accounts[id], nil
}

// Apply validates every mutation against the current balances before touching
// anything, so the whole call either commits or leaves the store unchanged.
// Mutations are checked in order: a later mutation on the same account must
// expect the balance the earlier one produced.
func (s *Store) Apply(ctx context.Context, mutations ...interfaces.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := make(map[string]decimal.Decimal, len(mutations))
	for _, m := range mutations {
		balance, seen := working[m.AccountID]
		if !seen {
			acct, ok := s.accounts[m.AccountID]
			if !ok {
				return interfaces.ErrNotFound
			}
			balance = acct.Balance
		}
		if !balance.Equal(m.ExpectedBalance) {
			return interfaces.ErrBalanceConflict
		}
		working[m.AccountID] = m.NewBalance
	}

	for _, m := range mutations {
		s.accounts[m.AccountID].Balance = m.NewBalance
		s.records[m.AccountID] = append(s.records[m.AccountID], m.Record)
	}
	return nil
}

// TransactionsByAccount returns copies of the account's records, oldest
// first. Records are appended in commit order, so a stable sort on the
// timestamp preserves insertion order for ties.
func (s *Store) TransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records[accountID]
	copied := make([]models.Transaction, len(recs))
	copy(copied, recs)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].CreatedAt.Before(copied[j].CreatedAt)
	})
	return copied, nil
}

var _ interfaces.Store = (*Store)(nil)
