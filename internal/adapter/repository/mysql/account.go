package mysql

import (
	"context"
	"fmt"
	"time"

	"coop-ledger/internal/apperr"
	accountDomain "coop-ledger/internal/domain/account"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Create(ctx context.Context, a *accountDomain.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AccountRepository) GetByAccountID(ctx context.Context, accountID string) (*accountDomain.Account, error) {
	var out accountDomain.Account
	res := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&out)
	return &out, res.Error
}

func (r *AccountRepository) GetByID(ctx context.Context, id uint64) (*accountDomain.Account, error) {
	var out accountDomain.Account
	res := r.db.WithContext(ctx).First(&out, id)
	return &out, res.Error
}

func (r *AccountRepository) Mutate(ctx context.Context, id uint64, expectedVersion int64, balance decimal.Decimal, lien *decimal.Decimal) (*accountDomain.Account, error) {
	if balance.IsNegative() {
		return nil, apperr.New(apperr.KindInsufficientFunds, "balance would become negative")
	}
	fields := map[string]any{
		"balance": balance,
		"version": gorm.Expr("version + 1"),
	}
	if lien != nil {
		fields["lien_amount"] = *lien
	}
	res := r.db.WithContext(ctx).
		Model(&accountDomain.Account{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("mutate account %d: %w", id, res.Error)
	}

	latest, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload account %d: %w", id, err)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict(latest)
	}
	return latest, nil
}

func (r *AccountRepository) UpdateTracking(ctx context.Context, id uint64, opening, minimum decimal.Decimal, period string) error {
	return r.db.WithContext(ctx).
		Model(&accountDomain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"month_opening_balance": opening,
			"month_minimum_balance": minimum,
			"tracking_period":       period,
		}).Error
}

func (r *AccountRepository) UpdateInterestFields(ctx context.Context, a *accountDomain.Account) error {
	return r.db.WithContext(ctx).
		Model(&accountDomain.Account{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"month_opening_balance": a.MonthOpeningBalance,
			"month_minimum_balance": a.MonthMinimumBalance,
			"tracking_period":       a.TrackingPeriod,
			"last_interest_date":    a.LastInterestDate,
			"interest_earned_ytd":   a.InterestEarnedYTD,
		}).Error
}

func (r *AccountRepository) ListInterestCandidates(ctx context.Context, periodStart time.Time) ([]accountDomain.Account, error) {
	var out []accountDomain.Account
	res := r.db.WithContext(ctx).
		Where("status = ? AND interest_rate > 0", accountDomain.StatusActive).
		Where("last_interest_date IS NULL OR last_interest_date < ?", periodStart).
		Order("id").
		Find(&out)
	return out, res.Error
}

func (r *AccountRepository) CreateTransaction(ctx context.Context, t *accountDomain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *AccountRepository) ListTransactions(ctx context.Context, accountID uint64) ([]accountDomain.Transaction, error) {
	var out []accountDomain.Transaction
	res := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id").Find(&out)
	return out, res.Error
}

func (r *AccountRepository) CreateInterestPosting(ctx context.Context, p *accountDomain.InterestPosting) error {
	return r.db.WithContext(ctx).Create(p).Error
}
