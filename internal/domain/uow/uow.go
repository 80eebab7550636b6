package uow

import (
	"context"

	"coop-ledger/internal/domain/account"
	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/outbox"
)

// Repos are bound to one database transaction.
type Repos struct {
	Accounts account.Repository
	Members  member.Repository
	Loans    loan.Repository
	Outbox   outbox.Repository
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx loads the loan first and hands it to fn inside the same tx.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
