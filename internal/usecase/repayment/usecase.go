// Package repayment applies member payments to approved loans.
package repayment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/outbox"
	"coop-ledger/internal/domain/uow"
	"coop-ledger/internal/usecase/idempotency"
	"coop-ledger/internal/usecase/movement"
	"coop-ledger/internal/usecase/penalty"
	"coop-ledger/pkg/id"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Usecase struct {
	loans loan.Repository
	uow   uow.UnitOfWork
	guard *idempotency.Guard
	rates penalty.RateSource
	log   *logrus.Logger
	now   func() time.Time
	wake  func()
}

func NewUsecase(loans loan.Repository, tx uow.UnitOfWork, guard *idempotency.Guard, rates penalty.RateSource, log *logrus.Logger) *Usecase {
	return &Usecase{loans: loans, uow: tx, guard: guard, rates: rates, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }
func (u *Usecase) WithWake(wake func()) *Usecase           { u.wake = wake; return u }

func notFound(err error, loanID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, "loan %s not found", loanID)
	}
	return apperr.Wrap(apperr.KindInternal, err, "load loan")
}

func checkPayable(l *loan.Loan) error {
	if l.IsFullyPaid {
		return apperr.New(apperr.KindAlreadySettled, "loan %s is fully paid", l.LoanID)
	}
	if l.WorkflowStatus != loan.StatusApproved {
		return apperr.New(apperr.KindAccountState, "loan %s is %s, not approved", l.LoanID, l.WorkflowStatus)
	}
	return nil
}

// catchUp is the penalty a payment must settle when the batch job has not yet
// charged the current overdue cycle.
func catchUp(l *loan.Loan, asOf time.Time, rate decimal.Decimal) decimal.Decimal {
	if l.PenaltyPostedThisCycle() {
		return decimal.Zero
	}
	return penalty.Due(l, asOf, rate)
}

// History lists a loan's repayments in posting order.
func (u *Usecase) History(ctx context.Context, loanID string) (*History, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, notFound(err, loanID)
	}
	rps, err := u.loans.ListRepayments(ctx, l.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "list repayments")
	}
	if rps == nil {
		rps = []loan.Repayment{}
	}
	return &History{
		LoanID:             l.LoanID,
		OutstandingBalance: l.OutstandingBalance,
		TotalPaid:          l.TotalPaid,
		PaymentsMade:       l.PaymentsMade,
		IsFullyPaid:        l.IsFullyPaid,
		Repayments:         rps,
	}, nil
}

func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*RepayResult, error) {
	if !movement.ValidAmount(in.Amount) {
		return nil, apperr.New(apperr.KindInvalidAmount, "amount must be positive with at most 2 decimal places")
	}
	if strings.TrimSpace(in.BankReceiptNo) == "" || strings.TrimSpace(in.BankReceiptImage) == "" {
		return nil, apperr.New(apperr.KindBadRequest, "bank receipt number and image are required")
	}
	if in.IdempotencyKey == "" {
		return nil, apperr.New(apperr.KindBadRequest, "idempotency key is required")
	}
	return idempotency.Do(ctx, u.guard, idempotency.Request{
		Key: in.IdempotencyKey, CallerID: in.CallerID, Operation: "loan_repayment", Body: in,
	}, func(ctx context.Context) (*RepayResult, error) { return u.repay(ctx, in) })
}

func (u *Usecase) repay(ctx context.Context, in RepayInput) (*RepayResult, error) {
	now := u.now()
	def := u.rates.PenaltyRate(ctx)
	var res *RepayResult

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if err := checkPayable(l); err != nil {
			return err
		}
		owner, err := r.Members.GetByMemberID(ctx, l.MemberID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.KindInternal, err, "load member")
		}
		if err == nil && owner.Status == member.StatusTerminated {
			return apperr.New(apperr.KindMemberState, "member %s is terminated", owner.MemberID)
		}

		rate := penalty.RateFor(l, def)
		charged := catchUp(l, now, rate)
		if charged.IsPositive() {
			if err := penalty.Post(ctx, r, l, charged, rate, now, penalty.SourceRepayment); err != nil {
				return apperr.Wrap(apperr.KindInternal, err, "post catch-up penalty")
			}
		}

		before := l.OutstandingBalance
		alloc := l.Allocate(in.Amount)
		if alloc.Remainder.IsPositive() {
			return apperr.New(apperr.KindBadRequest, "payment exceeds the outstanding balance of %s by %s",
				l.Outstanding().StringFixed(2), alloc.Remainder.StringFixed(2))
		}
		l.ApplyRepayment(alloc, now)
		if err := r.Loans.Update(ctx, l); err != nil {
			return apperr.Ensure(err, "update loan")
		}

		rp := &loan.Repayment{
			RepaymentID:      id.NewRepaymentRef(),
			LoanID:           l.ID,
			AmountPaid:       in.Amount,
			PrincipalPaid:    alloc.Principal,
			InterestPaid:     alloc.Interest,
			PenaltyPaid:      alloc.Penalty,
			BalanceBefore:    before,
			BalanceAfter:     l.OutstandingBalance,
			PaymentMethod:    in.PaymentMethod,
			BankReceiptNo:    in.BankReceiptNo,
			BankReceiptImage: in.BankReceiptImage,
			CompanyReceipt:   in.CompanyReceipt,
			Notes:            in.Notes,
			ReceivedBy:       in.ReceivedBy,
		}
		if err := r.Loans.CreateRepayment(ctx, rp); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "append repayment")
		}

		payload, err := json.Marshal(outbox.RepaymentPayload{
			LoanRef: l.LoanID, MemberID: l.MemberID, Amount: in.Amount,
			BalanceAfter: l.OutstandingBalance, FullyPaid: l.IsFullyPaid, At: now,
		})
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "encode repayment event")
		}
		if err := r.Outbox.Create(ctx, &outbox.Event{EventID: uuid.NewString(), Type: outbox.TypeLoanRepayment, Payload: payload}); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "enqueue repayment event")
		}

		res = &RepayResult{
			RepaymentID:     rp.RepaymentID,
			LoanID:          l.LoanID,
			AmountPaid:      in.Amount,
			PenaltyPaid:     alloc.Penalty,
			InterestPaid:    alloc.Interest,
			PrincipalPaid:   alloc.Principal,
			PenaltyCharged:  charged,
			BalanceBefore:   before,
			BalanceAfter:    l.OutstandingBalance,
			IsFullyPaid:     l.IsFullyPaid,
			NextPaymentDate: l.NextPaymentDate,
			PaymentsMade:    l.PaymentsMade,
			PaidAt:          now,
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(err, in.LoanID)
	}
	if err != nil {
		entry := u.log.WithFields(logrus.Fields{"loan_id": in.LoanID, "amount": in.Amount.String()})
		if apperr.KindOf(err) == apperr.KindInternal {
			entry.WithError(err).Error("loan repayment failed")
		} else {
			entry.WithError(err).Info("loan repayment rejected")
		}
		return nil, apperr.Ensure(err, "loan repayment")
	}

	u.log.WithFields(logrus.Fields{
		"repayment_id":  res.RepaymentID,
		"loan_id":       res.LoanID,
		"penalty_paid":  res.PenaltyPaid.String(),
		"interest_paid": res.InterestPaid.String(),
		"principal":     res.PrincipalPaid.String(),
		"balance_after": res.BalanceAfter.String(),
		"fully_paid":    res.IsFullyPaid,
	}).Info("loan repayment committed")
	if u.wake != nil {
		u.wake()
	}
	return res, nil
}

// Quote previews how amount would be split today without touching the loan.
func (u *Usecase) Quote(ctx context.Context, loanID string, amount decimal.Decimal) (*Quote, error) {
	if amount.IsNegative() {
		return nil, apperr.New(apperr.KindInvalidAmount, "amount must not be negative")
	}
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, notFound(err, loanID)
	}
	if err := checkPayable(l); err != nil {
		return nil, err
	}
	now := u.now()
	charged := catchUp(l, now, penalty.RateFor(l, u.rates.PenaltyRate(ctx)))
	if charged.IsPositive() {
		l.PostPenalty(charged, now)
	}
	return &Quote{
		LoanID:          l.LoanID,
		Outstanding:     l.Outstanding(),
		PenaltyDue:      l.UnpaidPenalty(),
		PenaltyCharged:  charged,
		Expected:        l.ExpectedPayment(),
		Allocation:      l.Allocate(amount),
		NextPaymentDate: l.NextPaymentDate,
	}, nil
}

// CorrectReceipt fixes receipt metadata on a posted repayment. Amounts never change.
func (u *Usecase) CorrectReceipt(ctx context.Context, in CorrectReceiptInput) (*loan.Repayment, error) {
	if strings.TrimSpace(in.BankReceiptNo) == "" || strings.TrimSpace(in.BankReceiptImage) == "" {
		return nil, apperr.New(apperr.KindBadRequest, "bank receipt number and image are required")
	}
	if strings.TrimSpace(in.Actor) == "" {
		return nil, apperr.New(apperr.KindBadRequest, "actor is required")
	}
	rp, err := u.loans.GetRepayment(ctx, in.RepaymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "repayment %s not found", in.RepaymentID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "load repayment")
	}

	now := u.now()
	rp.BankReceiptNo = in.BankReceiptNo
	rp.BankReceiptImage = in.BankReceiptImage
	rp.CompanyReceipt = in.CompanyReceipt
	rp.Notes = in.Notes
	rp.CorrectedBy = in.Actor
	rp.CorrectedAt = &now
	if err := u.loans.SaveRepaymentReceipt(ctx, rp); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "save receipt correction")
	}
	u.log.WithFields(logrus.Fields{"repayment_id": rp.RepaymentID, "actor": in.Actor}).Info("repayment receipt corrected")
	return rp, nil
}
