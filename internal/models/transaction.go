package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a transaction record.
type Kind string

const (
	KindDeposit          Kind = "deposit"
	KindWithdraw         Kind = "withdraw"
	KindTransferSent     Kind = "transfer_sent"
	KindTransferReceived Kind = "transfer_received"
)

// Transaction is one immutable audit record: the amount moved and the owning
// account's balance immediately after the move. A transfer produces two
// records (transfer_sent on the sender, transfer_received on the recipient)
// sharing the same amount and timestamp.
type Transaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"` // balance after this transaction
	CreatedAt time.Time       `json:"created_at"`
}
