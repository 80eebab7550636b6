package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetOpenApplicationByMemberID(ctx context.Context, memberID string) (*Loan, error)
	// Update persists l if its version is unchanged and bumps l.Version.
	Update(ctx context.Context, l *Loan) error
	// ListPenaltyCandidates returns approved, unpaid loans due before asOf.
	ListPenaltyCandidates(ctx context.Context, asOf time.Time) ([]Loan, error)

	CreateRepayment(ctx context.Context, r *Repayment) error
	GetRepayment(ctx context.Context, repaymentID string) (*Repayment, error)
	SaveRepaymentReceipt(ctx context.Context, r *Repayment) error
	ListRepayments(ctx context.Context, loanNumericID uint64) ([]Repayment, error)

	CreatePenaltyAudit(ctx context.Context, a *PenaltyAudit) error
	CreateStatusAudit(ctx context.Context, a *StatusAudit) error
}
