package movement

import (
	"time"

	"coop-ledger/internal/domain/account"

	"github.com/shopspring/decimal"
)

type Input struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	// IdempotencyKey and CallerID identify a retried request; they are not part of the payload.
	IdempotencyKey string `json:"-"`
	CallerID       string `json:"-"`
}

type Result struct {
	TransactionID    string          `json:"transaction_id"`
	AccountID        string          `json:"account_id"`
	TxnType          string          `json:"txn_type"`
	Amount           decimal.Decimal `json:"amount"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	Version          int64           `json:"version"`
	Reference        string          `json:"reference,omitempty"`
	At               time.Time       `json:"at"`
}

// Statement is an account with its ledger, oldest entry first.
type Statement struct {
	AccountID         string                `json:"account_id"`
	MemberID          string                `json:"member_id"`
	Status            account.Status        `json:"status"`
	Balance           decimal.Decimal       `json:"balance"`
	Lien              decimal.Decimal       `json:"lien_amount"`
	AvailableBalance  decimal.Decimal       `json:"available_balance"`
	InterestEarnedYTD decimal.Decimal       `json:"interest_earned_ytd"`
	Version           int64                 `json:"version"`
	Transactions      []account.Transaction `json:"transactions"`
}
