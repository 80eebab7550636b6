// Package dbtest opens a migrated in-memory sqlite database and seeds ledger rows
// for use-case tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"coop-ledger/internal/adapter/repository/mysql"
	"coop-ledger/internal/domain/account"
	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/member"
	"coop-ledger/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh schema. One connection only: every ":memory:"
// connection is its own database, so code under test must use the tx repos
// inside a unit of work.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := mysql.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func Day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func Member(t *testing.T, db *gorm.DB, memberID string, status member.Status, lastActivity *time.Time) *member.Member {
	t.Helper()
	m := &member.Member{MemberID: memberID, FullName: "Member " + memberID, Email: memberID + "@coop.test", Status: status, LastActivityDate: lastActivity}
	if err := mysql.NewMemberRepository(db).Create(context.Background(), m); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return m
}

// Account seeds an ACTIVE account with balance and the given annual interest rate.
func Account(t *testing.T, db *gorm.DB, memberID, balance, rate string) *account.Account {
	t.Helper()
	a := &account.Account{
		AccountID:    id.NewID32(),
		MemberID:     memberID,
		Product:      "SAVINGS",
		Balance:      D(balance),
		Status:       account.StatusActive,
		InterestRate: D(rate),
	}
	if err := mysql.NewAccountRepository(db).Create(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

// ApprovedLoan seeds a loan approved on disbursed with the given terms.
func ApprovedLoan(t *testing.T, db *gorm.DB, memberID, amount, rate string, typ loan.InterestType, term int, freq loan.Frequency, disbursed time.Time) *loan.Loan {
	t.Helper()
	l := &loan.Loan{
		LoanID:             id.NewLoanRef(),
		MemberID:           memberID,
		ApprovedAmount:     D(amount),
		InterestRate:       D(rate),
		InterestType:       typ,
		TermMonths:         term,
		RepaymentFrequency: freq,
	}
	l.Approve(disbursed)
	if err := mysql.NewLoanRepository(db).Create(context.Background(), l); err != nil {
		t.Fatalf("seed loan: %v", err)
	}
	return l
}
