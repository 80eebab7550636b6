package account

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByAccountID(ctx context.Context, accountID string) (*Account, error)
	GetByID(ctx context.Context, id uint64) (*Account, error)

	// Mutate writes balance (and lien when non-nil) only if the stored version still
	// equals expectedVersion, bumping the version by one in the same statement.
	// A lost race returns an apperr Conflict carrying the reloaded account.
	Mutate(ctx context.Context, id uint64, expectedVersion int64, balance decimal.Decimal, lien *decimal.Decimal) (*Account, error)

	UpdateTracking(ctx context.Context, id uint64, opening, minimum decimal.Decimal, period string) error
	UpdateInterestFields(ctx context.Context, a *Account) error
	ListInterestCandidates(ctx context.Context, periodStart time.Time) ([]Account, error)

	CreateTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, accountID uint64) ([]Transaction, error)
	CreateInterestPosting(ctx context.Context, p *InterestPosting) error
}
