package approval

import (
	"context"
	"errors"
	"time"

	"coop-ledger/internal/apperr"
	domainLoan "coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/uow"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Usecase struct {
	uow uow.UnitOfWork
	log *logrus.Logger
	now func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, log *logrus.Logger) *Usecase {
	return &Usecase{uow: tx, log: log, now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

// decidable: only PENDING or UNDER_REVIEW may be approved or rejected.
func decidable(l *domainLoan.Loan) error {
	switch l.WorkflowStatus {
	case domainLoan.StatusPending, domainLoan.StatusUnderReview:
		return nil
	case domainLoan.StatusApproved, domainLoan.StatusRejected:
		return apperr.Wrap(apperr.KindAlreadySettled, domainLoan.ErrInvalidTransition,
			"loan "+l.LoanID+" is already "+string(l.WorkflowStatus))
	}
	return apperr.Wrap(apperr.KindAccountState, domainLoan.ErrInvalidTransition, "unknown status "+string(l.WorkflowStatus))
}

func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*DecisionDTO, error) {
	if in.LoanID == "" || in.Actor == "" {
		return nil, apperr.New(apperr.KindBadRequest, "loan id and actor are required")
	}
	disbursed := in.DisbursedAt
	if disbursed.IsZero() {
		disbursed = u.now()
	}

	var dto *DecisionDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if err := decidable(l); err != nil {
			return err
		}
		old := l.WorkflowStatus
		l.Approve(disbursed.UTC())
		if err := r.Loans.Update(ctx, l); err != nil {
			return err
		}
		if err := r.Loans.CreateStatusAudit(ctx, &domainLoan.StatusAudit{
			LoanID: l.ID, OldStatus: old, NewStatus: domainLoan.StatusApproved, Actor: in.Actor, Reason: in.Notes,
		}); err != nil {
			return err
		}
		dto = &DecisionDTO{
			LoanID:             l.LoanID,
			Status:             string(l.WorkflowStatus),
			DecidedBy:          in.Actor,
			OutstandingBalance: l.OutstandingBalance,
			Installment:        l.ExpectedPayment().Total,
			DisbursementDate:   l.DisbursementDate,
			NextPaymentDate:    l.NextPaymentDate,
		}
		return nil
	})
	if err != nil {
		return nil, u.fail(err, in.LoanID, "approve loan")
	}
	u.log.WithFields(logrus.Fields{"loan_id": dto.LoanID, "actor": in.Actor, "outstanding": dto.OutstandingBalance.String()}).Info("loan approved")
	return dto, nil
}

func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*DecisionDTO, error) {
	if in.LoanID == "" || in.Actor == "" || in.Reason == "" {
		return nil, apperr.New(apperr.KindBadRequest, "loan id, actor and reason are required")
	}
	var dto *DecisionDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if err := decidable(l); err != nil {
			return err
		}
		old := l.WorkflowStatus
		l.WorkflowStatus = domainLoan.StatusRejected
		if err := r.Loans.Update(ctx, l); err != nil {
			return err
		}
		if err := r.Loans.CreateStatusAudit(ctx, &domainLoan.StatusAudit{
			LoanID: l.ID, OldStatus: old, NewStatus: domainLoan.StatusRejected, Actor: in.Actor, Reason: in.Reason,
		}); err != nil {
			return err
		}
		dto = &DecisionDTO{LoanID: l.LoanID, Status: string(l.WorkflowStatus), DecidedBy: in.Actor}
		return nil
	})
	if err != nil {
		return nil, u.fail(err, in.LoanID, "reject loan")
	}
	u.log.WithFields(logrus.Fields{"loan_id": in.LoanID, "actor": in.Actor}).Info("loan rejected")
	return dto, nil
}

func (u *Usecase) fail(err error, loanID, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, domainLoan.ErrNotFound, loanID)
	}
	return apperr.Ensure(err, msg)
}
