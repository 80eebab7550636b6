package loanmock

import (
	"context"
	domain "coop-ledger/internal/domain/loan"
	"time"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset read methods return context.Canceled; unset writes succeed.
type Repo struct {
	CreateFn                       func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                  func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetOpenApplicationByMemberIDFn func(ctx context.Context, memberID string) (*domain.Loan, error)
	UpdateFn                       func(ctx context.Context, l *domain.Loan) error
	ListPenaltyCandidatesFn        func(ctx context.Context, asOf time.Time) ([]domain.Loan, error)
	CreateRepaymentFn              func(ctx context.Context, r *domain.Repayment) error
	GetRepaymentFn                 func(ctx context.Context, repaymentID string) (*domain.Repayment, error)
	SaveRepaymentReceiptFn         func(ctx context.Context, r *domain.Repayment) error
	ListRepaymentsFn               func(ctx context.Context, loanNumericID uint64) ([]domain.Repayment, error)
	CreatePenaltyAuditFn           func(ctx context.Context, a *domain.PenaltyAudit) error
	CreateStatusAuditFn            func(ctx context.Context, a *domain.StatusAudit) error
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}
func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetOpenApplicationByMemberID(ctx context.Context, memberID string) (*domain.Loan, error) {
	if m.GetOpenApplicationByMemberIDFn != nil {
		return m.GetOpenApplicationByMemberIDFn(ctx, memberID)
	}
	return nil, context.Canceled
}

func (m *Repo) Update(ctx context.Context, l *domain.Loan) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, l)
	}
	l.Version++
	return nil
}

func (m *Repo) ListPenaltyCandidates(ctx context.Context, asOf time.Time) ([]domain.Loan, error) {
	if m.ListPenaltyCandidatesFn != nil {
		return m.ListPenaltyCandidatesFn(ctx, asOf)
	}
	return nil, nil
}

func (m *Repo) CreateRepayment(ctx context.Context, r *domain.Repayment) error {
	if m.CreateRepaymentFn != nil {
		return m.CreateRepaymentFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetRepayment(ctx context.Context, repaymentID string) (*domain.Repayment, error) {
	if m.GetRepaymentFn != nil {
		return m.GetRepaymentFn(ctx, repaymentID)
	}
	return nil, context.Canceled
}

func (m *Repo) SaveRepaymentReceipt(ctx context.Context, r *domain.Repayment) error {
	if m.SaveRepaymentReceiptFn != nil {
		return m.SaveRepaymentReceiptFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListRepayments(ctx context.Context, loanNumericID uint64) ([]domain.Repayment, error) {
	if m.ListRepaymentsFn != nil {
		return m.ListRepaymentsFn(ctx, loanNumericID)
	}
	return nil, nil
}

func (m *Repo) CreatePenaltyAudit(ctx context.Context, a *domain.PenaltyAudit) error {
	if m.CreatePenaltyAuditFn != nil {
		return m.CreatePenaltyAuditFn(ctx, a)
	}
	return nil
}

func (m *Repo) CreateStatusAudit(ctx context.Context, a *domain.StatusAudit) error {
	if m.CreateStatusAuditFn != nil {
		return m.CreateStatusAuditFn(ctx, a)
	}
	return nil
}
