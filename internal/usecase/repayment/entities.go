package repayment

import (
	"time"

	"coop-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type RepayInput struct {
	LoanID           string          `json:"loan_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method"`
	BankReceiptNo    string          `json:"bank_receipt_no"`
	BankReceiptImage string          `json:"bank_receipt_image"`
	CompanyReceipt   string          `json:"company_receipt,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	ReceivedBy       string          `json:"received_by,omitempty"`

	IdempotencyKey string `json:"-"`
	CallerID       string `json:"-"`
}

type RepayResult struct {
	RepaymentID     string          `json:"repayment_id"`
	LoanID          string          `json:"loan_id"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	PenaltyPaid     decimal.Decimal `json:"penalty_paid"`
	InterestPaid    decimal.Decimal `json:"interest_paid"`
	PrincipalPaid   decimal.Decimal `json:"principal_paid"`
	PenaltyCharged  decimal.Decimal `json:"penalty_charged"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	IsFullyPaid     bool            `json:"is_fully_paid"`
	NextPaymentDate *time.Time      `json:"next_payment_date,omitempty"`
	PaymentsMade    int             `json:"payments_made"`
	PaidAt          time.Time       `json:"paid_at"`
}

type Quote struct {
	LoanID          string           `json:"loan_id"`
	Outstanding     decimal.Decimal  `json:"outstanding"`
	PenaltyDue      decimal.Decimal  `json:"penalty_due"`
	PenaltyCharged  decimal.Decimal  `json:"penalty_charged"`
	Expected        loan.Installment `json:"expected"`
	Allocation      loan.Allocation  `json:"allocation"`
	NextPaymentDate *time.Time       `json:"next_payment_date,omitempty"`
}

type CorrectReceiptInput struct {
	RepaymentID      string `json:"repayment_id"`
	BankReceiptNo    string `json:"bank_receipt_no"`
	BankReceiptImage string `json:"bank_receipt_image"`
	CompanyReceipt   string `json:"company_receipt,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Actor            string `json:"actor"`
}

type History struct {
	LoanID             string           `json:"loan_id"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"`
	TotalPaid          decimal.Decimal  `json:"total_paid"`
	PaymentsMade       int              `json:"payments_made"`
	IsFullyPaid        bool             `json:"is_fully_paid"`
	Repayments         []loan.Repayment `json:"repayments"`
}
