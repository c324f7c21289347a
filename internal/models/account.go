package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a user's identity plus their monetary balance.
// Balance is a fixed-point decimal and is never negative in a committed state.
type Account struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	CredentialHash string          `json:"-"` // bcrypt hash, opaque to the store
	Balance        decimal.Decimal `json:"balance"`
	IsAdmin        bool            `json:"is_admin"`
	CreatedAt      time.Time       `json:"created_at"`
}
