package mysql

import (
	"testing"
	"time"

	accountDomain "coop-ledger/internal/domain/account"
	loanDomain "coop-ledger/internal/domain/loan"
	memberDomain "coop-ledger/internal/domain/member"
	"coop-ledger/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with the full ledger schema.
// One connection only: every ":memory:" connection is its own database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeMember(memberID string) *memberDomain.Member {
	return &memberDomain.Member{MemberID: memberID, FullName: "Test Member", Status: memberDomain.StatusActive}
}

func makeAccount(memberID, balance string) *accountDomain.Account {
	return &accountDomain.Account{
		AccountID:    id.NewID32(),
		MemberID:     memberID,
		Product:      "SAVINGS",
		Balance:      dec(balance),
		Status:       accountDomain.StatusActive,
		InterestRate: dec("6"),
	}
}

func makeLoan(loanID, memberID string) *loanDomain.Loan {
	return &loanDomain.Loan{
		LoanID:             loanID,
		MemberID:           memberID,
		ApprovedAmount:     dec("120000"),
		InterestRate:       dec("12"),
		InterestType:       loanDomain.InterestFlat,
		TermMonths:         12,
		RepaymentFrequency: loanDomain.FrequencyMonthly,
		WorkflowStatus:     loanDomain.StatusPending,
	}
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
