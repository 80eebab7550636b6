package loan

import (
	"time"

	domain "coop-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type ApplyInput struct {
	MemberID           string              `json:"member_id"`
	Amount             decimal.Decimal     `json:"amount"`
	InterestRate       decimal.Decimal     `json:"interest_rate"`
	InterestType       domain.InterestType `json:"interest_type"`
	TermMonths         int                 `json:"term_months"`
	RepaymentFrequency domain.Frequency    `json:"repayment_frequency"`
	PenaltyRate        decimal.Decimal     `json:"penalty_rate"`
	Actor              string              `json:"-"`
}

type LoanDTO struct {
	LoanID             string              `json:"loan_id"`
	MemberID           string              `json:"member_id"`
	Amount             decimal.Decimal     `json:"amount"`
	InterestRate       decimal.Decimal     `json:"interest_rate"`
	InterestType       string              `json:"interest_type"`
	TermMonths         int                 `json:"term_months"`
	RepaymentFrequency string              `json:"repayment_frequency"`
	Status             string              `json:"status"`
	OutstandingBalance decimal.Decimal     `json:"outstanding_balance"`
	TotalPaid          decimal.Decimal     `json:"total_paid"`
	TotalPenalty       decimal.Decimal     `json:"total_penalty"`
	PaymentsMade       int                 `json:"payments_made"`
	Installments       int                 `json:"installments"`
	Expected           *domain.Installment `json:"expected_payment,omitempty"`
	NextPaymentDate    *time.Time          `json:"next_payment_date,omitempty"`
	IsFullyPaid        bool                `json:"is_fully_paid"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
}

func toDTO(l *domain.Loan) *LoanDTO {
	dto := &LoanDTO{
		LoanID:             l.LoanID,
		MemberID:           l.MemberID,
		Amount:             l.ApprovedAmount,
		InterestRate:       l.InterestRate,
		InterestType:       string(l.InterestType),
		TermMonths:         l.TermMonths,
		RepaymentFrequency: string(l.RepaymentFrequency),
		Status:             string(l.WorkflowStatus),
		OutstandingBalance: l.OutstandingBalance,
		TotalPaid:          l.TotalPaid,
		TotalPenalty:       l.TotalPenalty,
		PaymentsMade:       l.PaymentsMade,
		Installments:       l.Installments(),
		NextPaymentDate:    l.NextPaymentDate,
		IsFullyPaid:        l.IsFullyPaid,
		Version:            l.Version,
		CreatedAt:          l.CreatedAt,
	}
	if l.WorkflowStatus == domain.StatusApproved && !l.IsFullyPaid {
		exp := l.ExpectedPayment()
		dto.Expected = &exp
	}
	return dto
}
