package approval

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApproveInput struct {
	LoanID      string
	Actor       string
	Notes       string
	DisbursedAt time.Time // zero means today; stored as a UTC date
}

type RejectInput struct {
	LoanID string
	Actor  string
	Reason string
}

type DecisionDTO struct {
	LoanID             string          `json:"loan_id"`
	Status             string          `json:"status"`
	DecidedBy          string          `json:"decided_by"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Installment        decimal.Decimal `json:"installment,omitempty"`
	DisbursementDate   *time.Time      `json:"disbursement_date,omitempty"`
	NextPaymentDate    *time.Time      `json:"next_payment_date,omitempty"`
}
