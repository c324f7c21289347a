// Package postgres implements interfaces.Store on database/sql with lib/pq.
// Every Apply call runs in a single database transaction; balance updates are
// compare-and-set so a stale write from another process is rejected rather
// than lost.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gurrammuni/jithu-bank/internal/interfaces"
	"github.com/gurrammuni/jithu-bank/internal/models"
)

// bootstrapLockKey serializes the first-account-is-admin decision across
// concurrent signups, including from other processes.
const bootstrapLockKey = 874001

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	credential_hash TEXT NOT NULL,
	balance NUMERIC(20,4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
	is_admin BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	seq BIGSERIAL,
	id UUID PRIMARY KEY,
	account_id UUID NOT NULL REFERENCES accounts(id),
	kind TEXT NOT NULL,
	amount NUMERIC(20,4) NOT NULL,
	balance_after NUMERIC(20,4) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account
	ON transactions (account_id, created_at, seq);
`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not ensure schema: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account with a zero balance. An advisory lock
// scoped to the transaction makes the count-then-insert admin decision
// atomic: two concurrent signups cannot both observe an empty table.
func (s *Store) CreateAccount(ctx context.Context, username, credentialHash string) (models.Account, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Account{}, err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if _, err = dbTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockKey); err != nil {
		return models.Account{}, err
	}

	var isAdmin bool
	if err = dbTx.QueryRowContext(ctx, `SELECT NOT EXISTS (SELECT 1 FROM accounts)`).Scan(&isAdmin); err != nil {
		return models.Account{}, err
	}

	acct := models.Account{
		ID:             uuid.New().String(),
		Username:       username,
		CredentialHash: credentialHash,
		IsAdmin:        isAdmin,
		CreatedAt:      time.Now().UTC(),
	}
	const query = `INSERT INTO accounts (id, username, credential_hash, balance, is_admin, created_at)
	VALUES ($1, $2, $3, 0, $4, $5)`
	if _, err = dbTx.ExecContext(ctx, query, acct.ID, acct.Username, acct.CredentialHash, acct.IsAdmin, acct.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			err = interfaces.ErrDuplicateUsername
		}
		return models.Account{}, err
	}

	if err = dbTx.Commit(); err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

const accountColumns = `id, username, credential_hash, balance, is_admin, created_at`

func (s *Store) AccountByID(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, username))
}

func (s *Store) scanAccount(row *sql.Row) (models.Account, error) {
	var acct models.Account
	err := row.Scan(&acct.ID, &acct.Username, &acct.CredentialHash, &acct.Balance, &acct.IsAdmin, &acct.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Account{}, interfaces.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("could not scan account: %w", err)
	}
	return acct, nil
}

// Apply commits all mutations in one database transaction. Each balance
// update only matches when the stored balance still equals the expected one;
// a miss rolls the whole transaction back with ErrBalanceConflict.
func (s *Store) Apply(ctx context.Context, mutations ...interfaces.Mutation) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	for _, m := range mutations {
		const update = `UPDATE accounts SET balance = $1 WHERE id = $2 AND balance = $3`
		var res sql.Result
		res, err = dbTx.ExecContext(ctx, update, m.NewBalance, m.AccountID, m.ExpectedBalance)
		if err != nil {
			return err
		}
		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			err = interfaces.ErrBalanceConflict
			return err
		}

		const insert = `INSERT INTO transactions (id, account_id, kind, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
		r := m.Record
		if _, err = dbTx.ExecContext(ctx, insert, r.ID, r.AccountID, r.Kind, r.Amount, r.Balance, r.CreatedAt); err != nil {
			return err
		}
	}

	err = dbTx.Commit()
	return err
}

func (s *Store) TransactionsByAccount(ctx context.Context, accountID string) ([]models.Transaction, error) {
	const query = `SELECT id, account_id, kind, amount, balance_after, created_at
	FROM transactions
	WHERE account_id = $1
	ORDER BY created_at, seq`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Kind, &t.Amount, &t.Balance, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txns, nil
}

var _ interfaces.Store = (*Store)(nil)
