package uowmock

import (
	"context"
	"errors"

	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed uow.UnitOfWork. Unset functions return errUnimplemented.
// Runs counts completed callbacks that returned nil, i.e. what a real
// unit of work would have committed.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error

	Commits int
}

func New() *UoW { return &UoW{} }

// Over runs every callback directly against r. WithinLoanTx loads the loan
// through r.Loans first, so a gorm not-found error from the mock surfaces as is.
func Over(r uow.Repos) *UoW {
	m := &UoW{}
	m.WithinTxFn = func(_ context.Context, fn func(uow.Repos) error) error { return fn(r) }
	m.WithinLoanTxFn = func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	}
	return m
}

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn == nil {
		return errUnimplemented
	}
	err := m.WithinTxFn(ctx, fn)
	if err == nil {
		m.Commits++
	}
	return err
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn == nil {
		return errUnimplemented
	}
	err := m.WithinLoanTxFn(ctx, loanID, fn)
	if err == nil {
		m.Commits++
	}
	return err
}
