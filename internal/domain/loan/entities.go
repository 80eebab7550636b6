package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidTransition = errors.New("invalid loan state transition")
)

type WorkflowStatus string

const (
	StatusPending     WorkflowStatus = "PENDING"
	StatusUnderReview WorkflowStatus = "UNDER_REVIEW"
	StatusApproved    WorkflowStatus = "APPROVED"
	StatusRejected    WorkflowStatus = "REJECTED"
)

type InterestType string

const (
	InterestFlat      InterestType = "FLAT"
	InterestDeclining InterestType = "DECLINING"
)

type Frequency string

const (
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
)

type Loan struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID             string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	MemberID           string          `gorm:"size:32;index:idx_loans_member" json:"member_id"`
	ApprovedAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"approved_amount"`
	InterestRate       decimal.Decimal `gorm:"type:decimal(6,3);not null" json:"interest_rate"`
	InterestType       InterestType    `gorm:"type:varchar(16);not null" json:"interest_type"`
	TermMonths         int             `gorm:"not null" json:"term_months"`
	RepaymentFrequency Frequency       `gorm:"type:varchar(16);not null;default:'MONTHLY'" json:"repayment_frequency"`
	// percent per overdue month; zero falls back to the configured default
	PenaltyRate decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0" json:"penalty_rate"`

	// FLAT only: principal plus the interest fixed at approval
	FlatTotal          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"flat_total"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"outstanding_balance"`
	TotalPaid          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_paid"`
	TotalPenalty       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_penalty"`
	PenaltyPaid        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"penalty_paid"`
	InterestPaid       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"interest_paid"`
	PrincipalPaid      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"principal_paid"`
	PaymentsMade       int             `gorm:"not null;default:0" json:"payments_made"`

	DisbursementDate *time.Time `gorm:"type:date" json:"disbursement_date,omitempty"`
	NextPaymentDate  *time.Time `gorm:"type:date;index:idx_loans_next_payment" json:"next_payment_date,omitempty"`
	LastPaymentDate  *time.Time `gorm:"type:date" json:"last_payment_date,omitempty"`
	LastPenaltyDate  *time.Time `gorm:"type:date" json:"last_penalty_date,omitempty"`
	IsFullyPaid      bool       `gorm:"not null;default:false" json:"is_fully_paid"`

	WorkflowStatus WorkflowStatus `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_loans_status" json:"workflow_status"`
	Version        int64          `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loan_applications" }

// Repayment is append-only apart from receipt metadata corrections.
type Repayment struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID   string          `gorm:"size:32;uniqueIndex:ux_loan_repayments_repayment_id" json:"repayment_id"`
	LoanID        uint64          `gorm:"not null;index:idx_loan_repayments_loan" json:"-"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount_paid"`
	PrincipalPaid decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"principal_paid"`
	InterestPaid  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"interest_paid"`
	PenaltyPaid   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"penalty_paid"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`

	PaymentMethod    string     `gorm:"size:32" json:"payment_method"`
	BankReceiptNo    string     `gorm:"size:64;not null" json:"bank_receipt_no"`
	BankReceiptImage string     `gorm:"type:text;not null" json:"bank_receipt_image"`
	CompanyReceipt   string     `gorm:"size:64" json:"company_receipt,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`
	ReceivedBy       string     `gorm:"size:64" json:"received_by,omitempty"`
	CorrectedBy      string     `gorm:"size:64" json:"corrected_by,omitempty"`
	CorrectedAt      *time.Time `json:"corrected_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Repayment) TableName() string { return "loan_repayments" }

type PenaltyAudit struct {
	ID              uint64          `gorm:"primaryKey;column:id"`
	LoanID          uint64          `gorm:"not null;index:idx_loan_penalty_audits_loan"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PeriodsMissed   int             `gorm:"not null"`
	DaysOverdue     int             `gorm:"not null"`
	Rate            decimal.Decimal `gorm:"type:decimal(6,3);not null"`
	ExpectedPayment decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Source          string          `gorm:"size:16;not null"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
}

func (PenaltyAudit) TableName() string { return "loan_penalty_audits" }

type StatusAudit struct {
	ID        uint64         `gorm:"primaryKey;column:id"`
	LoanID    uint64         `gorm:"not null;index:idx_loan_status_audits_loan"`
	OldStatus WorkflowStatus `gorm:"type:varchar(16);not null"`
	NewStatus WorkflowStatus `gorm:"type:varchar(16);not null"`
	Actor     string         `gorm:"size:64"`
	Reason    string         `gorm:"type:text"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (StatusAudit) TableName() string { return "loan_status_audits" }
