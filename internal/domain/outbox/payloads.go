package outbox

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementPayload struct {
	AccountID    uint64          `json:"account_id"`
	AccountRef   string          `json:"account_ref"`
	MemberID     string          `json:"member_id"`
	TxnType      string          `json:"txn_type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	At           time.Time       `json:"at"`
}

type RepaymentPayload struct {
	LoanRef      string          `json:"loan_ref"`
	MemberID     string          `json:"member_id"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	FullyPaid    bool            `json:"fully_paid"`
	At           time.Time       `json:"at"`
}

type PenaltyPayload struct {
	LoanRef  string          `json:"loan_ref"`
	MemberID string          `json:"member_id"`
	Amount   decimal.Decimal `json:"amount"`
	At       time.Time       `json:"at"`
}

type InterestPayload struct {
	AccountRef   string          `json:"account_ref"`
	MemberID     string          `json:"member_id"`
	Period       string          `json:"period"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}
