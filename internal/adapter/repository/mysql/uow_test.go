package mysql

import (
	"context"
	"errors"
	"testing"

	accountDomain "coop-ledger/internal/domain/account"
	loanDomain "coop-ledger/internal/domain/loan"
	outboxDomain "coop-ledger/internal/domain/outbox"
	"coop-ledger/internal/domain/uow"

	"gorm.io/gorm"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	accounts := NewAccountRepository(db)

	var accountID string
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Members.Create(ctx, makeMember("m-commit")); err != nil {
			return err
		}
		a := makeAccount("m-commit", "10")
		accountID = a.AccountID
		if err := r.Accounts.Create(ctx, a); err != nil {
			return err
		}
		return r.Outbox.Create(ctx, &outboxDomain.Event{EventID: "e-commit", Type: outboxDomain.TypeAccountMovement, Payload: []byte(`{}`)})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	if _, err := accounts.GetByAccountID(ctx, accountID); err != nil {
		t.Fatalf("account not visible after commit: %v", err)
	}
	pending, err := NewOutboxRepository(db).ListPending(ctx, 10, 5)
	if err != nil || len(pending) != 1 {
		t.Fatalf("outbox event not visible after commit: %v %d", err, len(pending))
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	sentinel := errors.New("boom")

	var a *accountDomain.Account
	_ = guow.WithinTx(ctx, func(r uow.Repos) error {
		a = makeAccount("m-roll", "10")
		if err := r.Accounts.Create(ctx, a); err != nil {
			return err
		}
		if err := r.Accounts.CreateTransaction(ctx, &accountDomain.Transaction{
			TxnID: "t-roll", AccountID: a.ID, TxnType: accountDomain.TxnDeposit, Amount: dec("10"), BalanceAfter: dec("10"),
		}); err != nil {
			return err
		}
		return sentinel
	})

	if _, err := NewAccountRepository(db).GetByAccountID(ctx, a.AccountID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected account not found after rollback, got %v", err)
	}
	var n int64
	db.Model(&accountDomain.Transaction{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no transactions after rollback, got %d", n)
	}
}

func TestGormUoW_WithinLoanTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loans := NewLoanRepository(db)

	seed := makeLoan("LN-TARGET", "m1")
	if err := loans.Create(ctx, seed); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	if err := guow.WithinLoanTx(ctx, "LN-TARGET", func(r uow.Repos, l *loanDomain.Loan) error {
		if l == nil || l.LoanID != "LN-TARGET" || l.WorkflowStatus != loanDomain.StatusPending {
			t.Fatalf("unexpected loan passed to fn: %+v", l)
		}
		if err := r.Loans.CreateStatusAudit(ctx, &loanDomain.StatusAudit{
			LoanID: l.ID, OldStatus: l.WorkflowStatus, NewStatus: loanDomain.StatusUnderReview, Actor: "officer",
		}); err != nil {
			return err
		}
		l.WorkflowStatus = loanDomain.StatusUnderReview
		return r.Loans.Update(ctx, l)
	}); err != nil {
		t.Fatalf("WithinLoanTx commit err: %v", err)
	}

	got, err := loans.GetByLoanID(ctx, "LN-TARGET")
	if err != nil {
		t.Fatalf("GetByLoanID post-commit: %v", err)
	}
	if got.WorkflowStatus != loanDomain.StatusUnderReview || got.Version != 1 {
		t.Fatalf("loan not updated, got=%+v", got)
	}
}

func TestGormUoW_WithinLoanTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	loans := NewLoanRepository(db)
	if err := loans.Create(ctx, makeLoan("LN-RB-TGT", "m1")); err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinLoanTx(ctx, "LN-RB-TGT", func(r uow.Repos, l *loanDomain.Loan) error {
		l.WorkflowStatus = loanDomain.StatusRejected
		if err := r.Loans.Update(ctx, l); err != nil {
			return err
		}
		return sentinel
	})

	got, err := loans.GetByLoanID(ctx, "LN-RB-TGT")
	if err != nil {
		t.Fatalf("post-rollback GetByLoanID: %v", err)
	}
	if got.WorkflowStatus != loanDomain.StatusPending {
		t.Fatalf("expected PENDING after rollback, got %s", got.WorkflowStatus)
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	db := openTestDB(t)
	guow := NewGormUoW(db)

	err := guow.WithinLoanTx(context.Background(), "LN-NOPE", func(r uow.Repos, l *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
