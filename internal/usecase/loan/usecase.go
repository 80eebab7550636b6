package loan

import (
	"context"
	"errors"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/uow"
	"coop-ledger/pkg/id"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Usecase struct {
	repo    loan.Repository
	members member.Repository
	uow     uow.UnitOfWork
	log     *logrus.Logger
}

func NewUsecase(r loan.Repository, members member.Repository, tx uow.UnitOfWork, log *logrus.Logger) *Usecase {
	return &Usecase{repo: r, members: members, uow: tx, log: log}
}

func validFrequency(f loan.Frequency) bool {
	return f == loan.FrequencyWeekly || f == loan.FrequencyMonthly || f == loan.FrequencyQuarterly
}

// Apply opens a PENDING application. A member may have only one open application.
func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*LoanDTO, error) {
	if in.MemberID == "" || !in.Amount.IsPositive() || in.TermMonths <= 0 || in.InterestRate.IsNegative() || in.PenaltyRate.IsNegative() {
		return nil, apperr.New(apperr.KindBadRequest, "invalid input")
	}
	if in.InterestType != loan.InterestFlat && in.InterestType != loan.InterestDeclining {
		return nil, apperr.New(apperr.KindBadRequest, "interest_type must be FLAT or DECLINING")
	}
	if in.RepaymentFrequency == "" {
		in.RepaymentFrequency = loan.FrequencyMonthly
	}
	if !validFrequency(in.RepaymentFrequency) {
		return nil, apperr.New(apperr.KindBadRequest, "repayment_frequency must be WEEKLY, MONTHLY or QUARTERLY")
	}

	m, err := u.members.GetByMemberID(ctx, in.MemberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "member %s not found", in.MemberID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "load member")
	}
	if m.Status != member.StatusActive {
		return nil, apperr.New(apperr.KindMemberState, "member %s is %s", m.MemberID, m.Status)
	}

	// Block if the member already has an application in flight.
	open, err := u.repo.GetOpenApplicationByMemberID(ctx, in.MemberID)
	switch {
	case err == nil:
		return nil, apperr.New(apperr.KindConflict, "member %s already has an open application: %s", in.MemberID, open.LoanID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.Wrap(apperr.KindInternal, err, "check open applications")
	}

	l := &loan.Loan{
		LoanID:             id.NewLoanRef(),
		MemberID:           in.MemberID,
		ApprovedAmount:     in.Amount.Round(2),
		InterestRate:       in.InterestRate,
		InterestType:       in.InterestType,
		TermMonths:         in.TermMonths,
		RepaymentFrequency: in.RepaymentFrequency,
		PenaltyRate:        in.PenaltyRate,
		WorkflowStatus:     loan.StatusPending,
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		return r.Loans.CreateStatusAudit(ctx, &loan.StatusAudit{
			LoanID: l.ID, NewStatus: loan.StatusPending, Actor: in.Actor, Reason: "application submitted",
		})
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "create application")
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	u.log.WithFields(logrus.Fields{"loan_id": l.LoanID, "member_id": l.MemberID, "amount": l.ApprovedAmount.String()}).Info("loan application submitted")
	return toDTO(l), nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, loan.ErrNotFound, loanID)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "load loan")
	}
	return toDTO(l), nil
}

// Review moves a PENDING application to UNDER_REVIEW.
func (u *Usecase) Review(ctx context.Context, loanID, actor string) (*LoanDTO, error) {
	var out *LoanDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.WorkflowStatus != loan.StatusPending {
			return apperr.Wrap(apperr.KindAccountState, loan.ErrInvalidTransition,
				"only PENDING applications can be reviewed, loan is "+string(l.WorkflowStatus))
		}
		l.WorkflowStatus = loan.StatusUnderReview
		if err := r.Loans.Update(ctx, l); err != nil {
			return err
		}
		if err := r.Loans.CreateStatusAudit(ctx, &loan.StatusAudit{
			LoanID: l.ID, OldStatus: loan.StatusPending, NewStatus: loan.StatusUnderReview, Actor: actor,
		}); err != nil {
			return err
		}
		out = toDTO(l)
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, loan.ErrNotFound, loanID)
	}
	if err != nil {
		return nil, apperr.Ensure(err, "review loan")
	}
	return out, nil
}
