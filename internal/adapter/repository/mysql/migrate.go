package mysql

import (
	"coop-ledger/internal/domain/account"
	"coop-ledger/internal/domain/idempotency"
	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/outbox"
	"coop-ledger/internal/domain/setting"

	"gorm.io/gorm"
)

// Models lists every table owned by the ledger core.
func Models() []any {
	return []any{
		&member.Member{}, &member.StatusAudit{},
		&account.Account{}, &account.Transaction{}, &account.InterestPosting{},
		&loan.Loan{}, &loan.Repayment{}, &loan.PenaltyAudit{}, &loan.StatusAudit{},
		&idempotency.Record{}, &outbox.Event{}, &setting.Setting{},
	}
}

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
