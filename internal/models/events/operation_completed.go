package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gurrammuni/jithu-bank/internal/models"
)

// OperationCompleted is published after a ledger operation commits. Transfers
// produce one event per written record, so downstream consumers see both the
// sender's and the recipient's side.
type OperationCompleted struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Kind          models.Kind     `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
