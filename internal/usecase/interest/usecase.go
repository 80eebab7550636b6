// Package interest posts monthly savings interest and keeps the per-period
// opening/minimum balance trackers current.
package interest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/domain/account"
	"coop-ledger/internal/domain/outbox"
	"coop-ledger/internal/domain/uow"
	"coop-ledger/pkg/id"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var minPosting = decimal.New(1, -2)

type Summary struct {
	Checked     int             `json:"checked"`
	Posted      int             `json:"posted"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type Usecase struct {
	accounts account.Repository
	uow      uow.UnitOfWork
	log      *logrus.Logger
	now      func() time.Time
}

func NewUsecase(accounts account.Repository, tx uow.UnitOfWork, log *logrus.Logger) *Usecase {
	return &Usecase{accounts: accounts, uow: tx, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

// UpdateMonthlyBalanceTracking folds a committed balance into the account's
// trackers. Replaying the same balance is harmless.
func (u *Usecase) UpdateMonthlyBalanceTracking(ctx context.Context, accountID uint64, newBalance decimal.Decimal, txnType string, at time.Time) error {
	a, err := u.accounts.GetByID(ctx, accountID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, "account %d not found", accountID)
	}
	if err != nil {
		return fmt.Errorf("load account %d: %w", accountID, err)
	}
	if !a.Track(newBalance, at) {
		u.log.WithFields(logrus.Fields{
			"account_id": a.AccountID,
			"period":     a.TrackingPeriod,
			"event_at":   at.Format(time.RFC3339),
		}).Warn("stale balance event ignored")
		return nil
	}
	if err := u.accounts.UpdateTracking(ctx, a.ID, a.MonthOpeningBalance, a.MonthMinimumBalance, a.TrackingPeriod); err != nil {
		return fmt.Errorf("update tracking %d: %w", accountID, err)
	}
	u.log.WithFields(logrus.Fields{
		"account_id": a.AccountID,
		"txn_type":   txnType,
		"period":     a.TrackingPeriod,
		"opening":    a.MonthOpeningBalance.String(),
		"minimum":    a.MonthMinimumBalance.String(),
	}).Debug("balance tracking updated")
	return nil
}

// RunInterestAccrual posts last month's interest on every eligible account.
// A failing account is logged and counted; the batch carries on.
func (u *Usecase) RunInterestAccrual(ctx context.Context) (*Summary, error) {
	now := u.now()
	periodStart := account.PeriodStart(now)
	accrued := account.Period(periodStart.AddDate(0, 0, -1))

	candidates, err := u.accounts.ListInterestCandidates(ctx, periodStart)
	if err != nil {
		return nil, fmt.Errorf("list interest candidates: %w", err)
	}

	s := &Summary{TotalAmount: decimal.Zero}
	for _, c := range candidates {
		s.Checked++
		amount, err := u.post(ctx, c.ID, accrued, now)
		entry := u.log.WithFields(logrus.Fields{"account_id": c.AccountID, "period": accrued})
		switch {
		case err != nil:
			s.Failed++
			entry.WithError(err).Error("interest posting failed")
		case amount.IsZero():
			s.Skipped++
		default:
			s.Posted++
			s.TotalAmount = s.TotalAmount.Add(amount)
			entry.WithField("amount", amount.String()).Info("interest posted")
		}
	}
	u.log.WithFields(logrus.Fields{
		"job": "interest", "checked": s.Checked, "posted": s.Posted,
		"skipped": s.Skipped, "failed": s.Failed, "total": s.TotalAmount.String(),
	}).Info("interest accrual finished")
	return s, nil
}

// baseFor picks the balance interest for period is paid on. Trackers that belong
// to another period mean the account had no movement in it.
func baseFor(a *account.Account, period string) (decimal.Decimal, bool) {
	if a.TrackingPeriod == period {
		return a.InterestBase()
	}
	return a.Balance, false
}

// post returns zero when the account turned out not to need a posting.
func (u *Usecase) post(ctx context.Context, accountID uint64, period string, now time.Time) (decimal.Decimal, error) {
	posted := decimal.Zero
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Accounts.GetByID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}
		if a.Status != account.StatusActive || !a.InterestRate.IsPositive() {
			return nil
		}
		if a.LastInterestDate != nil && !a.LastInterestDate.Before(account.PeriodStart(now)) {
			return nil
		}

		base, usedMin := baseFor(a, period)
		amount := account.MonthlyInterest(base, a.InterestRate)
		if amount.LessThan(minPosting) {
			return nil
		}

		updated, err := r.Accounts.Mutate(ctx, a.ID, a.Version, a.Balance.Add(amount), nil)
		if err != nil {
			return err
		}

		txn := &account.Transaction{
			TxnID:        id.NewTransactionRef(),
			AccountID:    a.ID,
			TxnType:      account.TxnDeposit,
			Amount:       amount,
			BalanceAfter: updated.Balance,
			Reference:    fmt.Sprintf("Interest %s at %s%% p.a.", period, a.InterestRate.String()),
		}
		if err := r.Accounts.CreateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("append interest transaction: %w", err)
		}
		if err := r.Accounts.CreateInterestPosting(ctx, &account.InterestPosting{
			AccountID:     a.ID,
			Period:        period,
			BalanceUsed:   base,
			UsedMinimum:   usedMin,
			Rate:          a.InterestRate,
			Amount:        amount,
			TransactionID: txn.ID,
		}); err != nil {
			return fmt.Errorf("record interest posting: %w", err)
		}

		if a.LastInterestDate == nil || a.LastInterestDate.Year() != now.Year() {
			updated.InterestEarnedYTD = decimal.Zero
		}
		updated.InterestEarnedYTD = updated.InterestEarnedYTD.Add(amount)
		// fresh tracking period starting from the post-interest balance
		updated.MonthOpeningBalance = updated.Balance
		updated.MonthMinimumBalance = updated.Balance
		updated.TrackingPeriod = account.Period(now)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		updated.LastInterestDate = &today
		if err := r.Accounts.UpdateInterestFields(ctx, updated); err != nil {
			return fmt.Errorf("update interest fields: %w", err)
		}

		payload, err := json.Marshal(outbox.InterestPayload{
			AccountRef: a.AccountID, MemberID: a.MemberID, Period: period,
			Amount: amount, BalanceAfter: updated.Balance,
		})
		if err != nil {
			return err
		}
		if err := r.Outbox.Create(ctx, &outbox.Event{EventID: uuid.NewString(), Type: outbox.TypeInterestPosted, Payload: payload}); err != nil {
			return fmt.Errorf("enqueue interest event: %w", err)
		}
		posted = amount
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return posted, nil
}
