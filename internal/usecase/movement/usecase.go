// Package movement posts deposits and withdrawals against ledger accounts.
package movement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/domain/account"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/outbox"
	"coop-ledger/internal/domain/uow"
	"coop-ledger/internal/usecase/idempotency"
	"coop-ledger/pkg/id"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Usecase struct {
	uow   uow.UnitOfWork
	guard *idempotency.Guard
	log   *logrus.Logger
	now   func() time.Time
	// wake nudges the outbox dispatcher after a commit; may be nil
	wake func()
}

func NewUsecase(tx uow.UnitOfWork, guard *idempotency.Guard, log *logrus.Logger) *Usecase {
	return &Usecase{uow: tx, guard: guard, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }
func (u *Usecase) WithWake(wake func()) *Usecase           { u.wake = wake; return u }

func (u *Usecase) Deposit(ctx context.Context, in Input) (*Result, error) {
	return u.move(ctx, account.TxnDeposit, in)
}

func (u *Usecase) Withdraw(ctx context.Context, in Input) (*Result, error) {
	return u.move(ctx, account.TxnWithdrawal, in)
}

// ValidAmount accepts positive amounts with at most two decimal places.
func ValidAmount(a decimal.Decimal) bool {
	return a.IsPositive() && a.Equal(a.Round(2))
}

func (u *Usecase) move(ctx context.Context, typ account.TxnType, in Input) (*Result, error) {
	if !ValidAmount(in.Amount) {
		return nil, apperr.New(apperr.KindInvalidAmount, "amount must be positive with at most 2 decimal places")
	}
	if in.AccountID == "" {
		return nil, apperr.New(apperr.KindBadRequest, "account_id is required")
	}
	if in.IdempotencyKey == "" {
		return nil, apperr.New(apperr.KindBadRequest, "idempotency key is required")
	}
	return idempotency.Do(ctx, u.guard, idempotency.Request{
		Key:       in.IdempotencyKey,
		CallerID:  in.CallerID,
		Operation: string(typ),
		Body:      in,
	}, func(ctx context.Context) (*Result, error) { return u.execute(ctx, typ, in) })
}

func (u *Usecase) execute(ctx context.Context, typ account.TxnType, in Input) (*Result, error) {
	now := u.now()
	var res *Result

	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		acct, err := r.Accounts.GetByAccountID(ctx, in.AccountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "account %s not found", in.AccountID)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "load account")
		}
		if err := checkAccount(acct, typ); err != nil {
			return err
		}

		owner, err := r.Members.GetByMemberID(ctx, acct.MemberID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "member %s not found", acct.MemberID)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "load member")
		}
		if err := checkMember(owner, typ); err != nil {
			return err
		}

		newBalance := acct.Balance.Add(in.Amount)
		if typ == account.TxnWithdrawal {
			if avail := acct.AvailableBalance(); avail.LessThan(in.Amount) {
				return apperr.InsufficientFunds(avail)
			}
			newBalance = acct.Balance.Sub(in.Amount)
		}

		updated, err := r.Accounts.Mutate(ctx, acct.ID, acct.Version, newBalance, nil)
		if err != nil {
			return apperr.Ensure(err, "mutate account")
		}

		txn := &account.Transaction{
			TxnID:          id.NewTransactionRef(),
			AccountID:      acct.ID,
			TxnType:        typ,
			Amount:         in.Amount,
			BalanceAfter:   updated.Balance,
			Reference:      in.Reference,
			IdempotencyKey: &in.IdempotencyKey,
		}
		if err := r.Accounts.CreateTransaction(ctx, txn); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "append transaction")
		}

		payload, err := json.Marshal(outbox.MovementPayload{
			AccountID:    acct.ID,
			AccountRef:   acct.AccountID,
			MemberID:     acct.MemberID,
			TxnType:      string(typ),
			Amount:       in.Amount,
			BalanceAfter: updated.Balance,
			At:           now,
		})
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "encode movement event")
		}
		if err := r.Outbox.Create(ctx, &outbox.Event{EventID: uuid.NewString(), Type: outbox.TypeAccountMovement, Payload: payload}); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "enqueue movement event")
		}

		res = &Result{
			TransactionID:    txn.TxnID,
			AccountID:        acct.AccountID,
			TxnType:          string(typ),
			Amount:           in.Amount,
			BalanceAfter:     updated.Balance,
			AvailableBalance: updated.AvailableBalance(),
			Version:          updated.Version,
			Reference:        in.Reference,
			At:               now,
		}
		return nil
	})
	if err != nil {
		entry := u.log.WithFields(logrus.Fields{"account_id": in.AccountID, "txn_type": typ, "amount": in.Amount.String()})
		if apperr.KindOf(err) == apperr.KindInternal {
			entry.WithError(err).Error("money movement failed")
		} else {
			entry.WithError(err).Info("money movement rejected")
		}
		return nil, apperr.Ensure(err, "money movement")
	}

	u.log.WithFields(logrus.Fields{
		"txn_id":        res.TransactionID,
		"account_id":    res.AccountID,
		"txn_type":      res.TxnType,
		"balance_after": res.BalanceAfter.String(),
	}).Info("money movement committed")
	if u.wake != nil {
		u.wake()
	}
	return res, nil
}

// Statement reads the account and its transactions in one snapshot.
func (u *Usecase) Statement(ctx context.Context, accountID string) (*Statement, error) {
	var out *Statement
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		acct, err := r.Accounts.GetByAccountID(ctx, accountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "account %s not found", accountID)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "load account")
		}
		txns, err := r.Accounts.ListTransactions(ctx, acct.ID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "list transactions")
		}
		if txns == nil {
			txns = []account.Transaction{}
		}
		out = &Statement{
			AccountID:         acct.AccountID,
			MemberID:          acct.MemberID,
			Status:            acct.Status,
			Balance:           acct.Balance,
			Lien:              acct.Lien,
			AvailableBalance:  acct.AvailableBalance(),
			InterestEarnedYTD: acct.InterestEarnedYTD,
			Version:           acct.Version,
			Transactions:      txns,
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Ensure(err, "account statement")
	}
	return out, nil
}

func checkAccount(a *account.Account, typ account.TxnType) error {
	switch a.Status {
	case account.StatusClosed:
		return apperr.New(apperr.KindAccountState, "account %s is closed", a.AccountID)
	case account.StatusFrozen:
		if typ == account.TxnWithdrawal {
			return apperr.New(apperr.KindAccountState, "account %s is frozen", a.AccountID)
		}
	}
	return nil
}

// Terminated members can do nothing; any other non-active member may still deposit.
func checkMember(m *member.Member, typ account.TxnType) error {
	if m.Status == member.StatusTerminated {
		return apperr.New(apperr.KindMemberState, "member %s is terminated", m.MemberID)
	}
	if typ == account.TxnWithdrawal && m.Status != member.StatusActive {
		return apperr.New(apperr.KindMemberState, "member %s is %s; withdrawals need an active member", m.MemberID, m.Status)
	}
	return nil
}
