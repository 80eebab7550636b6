package account

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusFrozen Status = "FROZEN"
	StatusClosed Status = "CLOSED"
)

type TxnType string

const (
	TxnDeposit    TxnType = "DEPOSIT"
	TxnWithdrawal TxnType = "WITHDRAWAL"
)

type Account struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"-"`
	AccountID string          `gorm:"size:32;uniqueIndex:ux_accounts_account_id" json:"account_id"`
	MemberID  string          `gorm:"size:32;index:idx_accounts_member" json:"member_id"`
	Product   string          `gorm:"size:32" json:"product"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	Lien      decimal.Decimal `gorm:"column:lien_amount;type:decimal(18,2);not null;default:0" json:"lien_amount"`
	Version   int64           `gorm:"not null;default:0" json:"version"`
	Status    Status          `gorm:"type:varchar(16);not null;default:'ACTIVE'" json:"status"`
	// annual percentage, copied from the product at opening
	InterestRate decimal.Decimal `gorm:"type:decimal(6,3);not null;default:0" json:"interest_rate"`

	MonthOpeningBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"month_opening_balance"`
	MonthMinimumBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"month_minimum_balance"`
	// YYYY-MM the opening/minimum trackers belong to
	TrackingPeriod    string          `gorm:"size:7" json:"tracking_period"`
	LastInterestDate  *time.Time      `gorm:"type:date" json:"last_interest_date,omitempty"`
	InterestEarnedYTD decimal.Decimal `gorm:"column:interest_earned_ytd;type:decimal(18,2);not null;default:0" json:"interest_earned_ytd"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// AvailableBalance is the withdrawable amount: balance minus lien.
func (a *Account) AvailableBalance() decimal.Decimal { return a.Balance.Sub(a.Lien) }

type Transaction struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	TxnID          string          `gorm:"size:32;uniqueIndex:ux_transactions_txn_id" json:"txn_id"`
	AccountID      uint64          `gorm:"not null;index:idx_transactions_account" json:"-"`
	TxnType        TxnType         `gorm:"type:varchar(16);not null" json:"txn_type"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`
	Reference      string          `gorm:"size:128" json:"reference"`
	IdempotencyKey *string         `gorm:"size:64;index:idx_transactions_idem_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

type InterestPosting struct {
	ID            uint64          `gorm:"primaryKey;column:id"`
	AccountID     uint64          `gorm:"not null;index:idx_interest_postings_account"`
	Period        string          `gorm:"size:7;not null"`
	BalanceUsed   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UsedMinimum   bool            `gorm:"not null"`
	Rate          decimal.Decimal `gorm:"type:decimal(6,3);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TransactionID uint64          `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
}

func (InterestPosting) TableName() string { return "interest_postings" }
