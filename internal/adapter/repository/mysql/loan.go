package mysql

import (
	"context"
	"fmt"
	"time"

	"coop-ledger/internal/apperr"
	loanDomain "coop-ledger/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	return &out, res.Error
}

func (r *LoanRepository) GetOpenApplicationByMemberID(ctx context.Context, memberID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("member_id = ? AND workflow_status IN ?", memberID,
			[]loanDomain.WorkflowStatus{loanDomain.StatusPending, loanDomain.StatusUnderReview}).
		Order("created_at DESC, id DESC").
		First(&out)
	return &out, res.Error
}

// Update writes every column guarded by the version read earlier.
func (r *LoanRepository) Update(ctx context.Context, l *loanDomain.Loan) error {
	expected := l.Version
	l.Version = expected + 1
	res := r.db.WithContext(ctx).
		Model(&loanDomain.Loan{}).
		Where("id = ? AND version = ?", l.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(l)
	if res.Error != nil {
		l.Version = expected
		return fmt.Errorf("update loan %s: %w", l.LoanID, res.Error)
	}
	if res.RowsAffected == 0 {
		l.Version = expected
		latest, err := r.GetByLoanID(ctx, l.LoanID)
		if err != nil {
			return fmt.Errorf("reload loan %s: %w", l.LoanID, err)
		}
		return apperr.Conflict(latest)
	}
	return nil
}

func (r *LoanRepository) ListPenaltyCandidates(ctx context.Context, asOf time.Time) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("workflow_status = ? AND is_fully_paid = ?", loanDomain.StatusApproved, false).
		Where("next_payment_date IS NOT NULL AND next_payment_date < ?", asOf).
		Order("id").
		Find(&out)
	return out, res.Error
}

func (r *LoanRepository) CreateRepayment(ctx context.Context, rp *loanDomain.Repayment) error {
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *LoanRepository) GetRepayment(ctx context.Context, repaymentID string) (*loanDomain.Repayment, error) {
	var out loanDomain.Repayment
	res := r.db.WithContext(ctx).Where("repayment_id = ?", repaymentID).First(&out)
	return &out, res.Error
}

// SaveRepaymentReceipt only touches receipt metadata; amounts are immutable.
func (r *LoanRepository) SaveRepaymentReceipt(ctx context.Context, rp *loanDomain.Repayment) error {
	return r.db.WithContext(ctx).
		Model(&loanDomain.Repayment{}).
		Where("id = ?", rp.ID).
		Updates(map[string]any{
			"bank_receipt_no":    rp.BankReceiptNo,
			"bank_receipt_image": rp.BankReceiptImage,
			"company_receipt":    rp.CompanyReceipt,
			"notes":              rp.Notes,
			"corrected_by":       rp.CorrectedBy,
			"corrected_at":       rp.CorrectedAt,
		}).Error
}

func (r *LoanRepository) ListRepayments(ctx context.Context, loanNumericID uint64) ([]loanDomain.Repayment, error) {
	var out []loanDomain.Repayment
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).Order("id").Find(&out)
	return out, res.Error
}

func (r *LoanRepository) CreatePenaltyAudit(ctx context.Context, a *loanDomain.PenaltyAudit) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *LoanRepository) CreateStatusAudit(ctx context.Context, a *loanDomain.StatusAudit) error {
	return r.db.WithContext(ctx).Create(a).Error
}
