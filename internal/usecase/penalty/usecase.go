// Package penalty charges overdue loans once per missed repayment period.
package penalty

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/outbox"
	"coop-ledger/internal/domain/uow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	SourceBatch     = "batch"
	SourceRepayment = "repayment"
)

// RateSource supplies the default penalty rate when a loan carries none.
type RateSource interface {
	PenaltyRate(ctx context.Context) decimal.Decimal
}

type Summary struct {
	Checked     int             `json:"checked"`
	Posted      int             `json:"posted"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type Usecase struct {
	loans loan.Repository
	uow   uow.UnitOfWork
	rates RateSource
	log   *logrus.Logger
	now   func() time.Time
}

func NewUsecase(loans loan.Repository, tx uow.UnitOfWork, rates RateSource, log *logrus.Logger) *Usecase {
	return &Usecase{loans: loans, uow: tx, rates: rates, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

// RateFor is the loan's own rate, or the configured default.
func RateFor(l *loan.Loan, def decimal.Decimal) decimal.Decimal {
	if l.PenaltyRate.IsPositive() {
		return l.PenaltyRate
	}
	return def
}

// Due reports the penalty to post on l at asOf, or zero when the loan is not
// a full period overdue or was already charged within the last period.
func Due(l *loan.Loan, asOf time.Time, rate decimal.Decimal) decimal.Decimal {
	if l.PeriodsMissed(asOf) == 0 {
		return decimal.Zero
	}
	if base := l.PenaltyBaseline(); base != nil {
		if loan.DaysBetween(*base, asOf) < loan.PeriodDays(l.RepaymentFrequency) {
			return decimal.Zero
		}
	}
	return l.Penalty(asOf, rate)
}

// Post books amount on l and writes the audit trail and event. l must be saved by the caller.
func Post(ctx context.Context, r uow.Repos, l *loan.Loan, amount, rate decimal.Decimal, asOf time.Time, source string) error {
	periods, days := l.PeriodsMissed(asOf), l.DaysOverdue(asOf)
	expected := l.ExpectedPayment().Total
	l.PostPenalty(amount, asOf)
	if err := r.Loans.CreatePenaltyAudit(ctx, &loan.PenaltyAudit{
		LoanID:          l.ID,
		Amount:          amount,
		PeriodsMissed:   periods,
		DaysOverdue:     days,
		Rate:            rate,
		ExpectedPayment: expected,
		Source:          source,
	}); err != nil {
		return fmt.Errorf("write penalty audit: %w", err)
	}
	payload, err := json.Marshal(outbox.PenaltyPayload{LoanRef: l.LoanID, MemberID: l.MemberID, Amount: amount, At: asOf})
	if err != nil {
		return err
	}
	if err := r.Outbox.Create(ctx, &outbox.Event{EventID: uuid.NewString(), Type: outbox.TypeLoanPenalty, Payload: payload}); err != nil {
		return fmt.Errorf("enqueue penalty event: %w", err)
	}
	return nil
}

// RunPenaltyAccrual charges every overdue loan. Per-loan failures are logged and counted.
func (u *Usecase) RunPenaltyAccrual(ctx context.Context) (*Summary, error) {
	now := u.now()
	def := u.rates.PenaltyRate(ctx)

	candidates, err := u.loans.ListPenaltyCandidates(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list penalty candidates: %w", err)
	}

	s := &Summary{TotalAmount: decimal.Zero}
	for _, c := range candidates {
		s.Checked++
		var posted decimal.Decimal
		err := u.uow.WithinLoanTx(ctx, c.LoanID, func(r uow.Repos, l *loan.Loan) error {
			if l.WorkflowStatus != loan.StatusApproved || l.IsFullyPaid {
				return nil
			}
			rate := RateFor(l, def)
			amount := Due(l, now, rate)
			if !amount.IsPositive() {
				return nil
			}
			if err := Post(ctx, r, l, amount, rate, now, SourceBatch); err != nil {
				return err
			}
			if err := r.Loans.Update(ctx, l); err != nil {
				return err
			}
			posted = amount
			return nil
		})

		entry := u.log.WithFields(logrus.Fields{"loan_id": c.LoanID, "days_overdue": c.DaysOverdue(now)})
		switch {
		case err != nil:
			s.Failed++
			entry.WithError(err).Error("penalty posting failed")
		case posted.IsZero():
			s.Skipped++
		default:
			s.Posted++
			s.TotalAmount = s.TotalAmount.Add(posted)
			entry.WithField("amount", posted.String()).Info("penalty posted")
		}
	}
	u.log.WithFields(logrus.Fields{
		"job": "penalty", "checked": s.Checked, "posted": s.Posted,
		"skipped": s.Skipped, "failed": s.Failed, "total": s.TotalAmount.String(),
	}).Info("penalty accrual finished")
	return s, nil
}
