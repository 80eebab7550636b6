// Package events delivers post-commit side effects recorded in the outbox.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"coop-ledger/internal/domain/account"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/outbox"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BalanceTracker keeps an account's monthly opening/minimum balances current.
type BalanceTracker interface {
	UpdateMonthlyBalanceTracking(ctx context.Context, accountID uint64, newBalance decimal.Decimal, txnType string, at time.Time) error
}

// ActivityTracker records that a member just did something.
type ActivityTracker interface {
	UpdateMemberActivity(ctx context.Context, memberID string) error
}

type Options struct {
	BatchSize   int
	MaxAttempts int
}

type Dispatcher struct {
	events   outbox.Repository
	members  member.Repository
	tracker  BalanceTracker
	activity ActivityTracker
	notifier Notifier
	log      *logrus.Logger
	opts     Options
	now      func() time.Time
	wake     chan struct{}
}

func NewDispatcher(events outbox.Repository, members member.Repository, tracker BalanceTracker, activity ActivityTracker, notifier Notifier, log *logrus.Logger, opts Options) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	return &Dispatcher{
		events: events, members: members, tracker: tracker, activity: activity, notifier: notifier,
		log: log, opts: opts, now: func() time.Time { return time.Now().UTC() },
		wake: make(chan struct{}, 1),
	}
}

// Wake asks the running loop for an early pass. It never blocks.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
			d.log.WithError(err).Error("outbox pass failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.wake:
		}
	}
}

// RunOnce delivers one batch of pending events, oldest first.
func (d *Dispatcher) RunOnce(ctx context.Context) (delivered, failed int, err error) {
	pending, err := d.events.ListPending(ctx, d.opts.BatchSize, d.opts.MaxAttempts)
	if err != nil {
		return 0, 0, fmt.Errorf("list pending events: %w", err)
	}
	for i := range pending {
		e := &pending[i]
		entry := d.log.WithFields(logrus.Fields{"event_id": e.EventID, "type": e.Type, "attempt": e.Attempts + 1})
		if herr := d.handle(ctx, e); herr != nil {
			failed++
			if merr := d.events.MarkFailed(ctx, e.ID, herr.Error()); merr != nil {
				entry.WithError(merr).Error("mark event failed")
			}
			entry.WithError(herr).Warn("event delivery failed")
			continue
		}
		if merr := d.events.MarkDelivered(ctx, e.ID, d.now()); merr != nil {
			entry.WithError(merr).Error("mark event delivered")
			continue
		}
		delivered++
	}
	return delivered, failed, nil
}

func (d *Dispatcher) handle(ctx context.Context, e *outbox.Event) error {
	switch e.Type {
	case outbox.TypeAccountMovement:
		var p outbox.MovementPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		if err := d.tracker.UpdateMonthlyBalanceTracking(ctx, p.AccountID, p.BalanceAfter, p.TxnType, p.At); err != nil {
			return err
		}
		if err := d.activity.UpdateMemberActivity(ctx, p.MemberID); err != nil {
			return err
		}
		return d.notify(ctx, p.MemberID, fmt.Sprintf("%s of %s on account %s", humanTxn(p.TxnType), p.Amount.StringFixed(2), p.AccountRef),
			fmt.Sprintf("A %s of %s was posted to account %s on %s. New balance: %s.",
				strings.ToLower(humanTxn(p.TxnType)), p.Amount.StringFixed(2), p.AccountRef, p.At.Format("2006-01-02 15:04 MST"), p.BalanceAfter.StringFixed(2)))

	case outbox.TypeLoanRepayment:
		var p outbox.RepaymentPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		if err := d.activity.UpdateMemberActivity(ctx, p.MemberID); err != nil {
			return err
		}
		body := fmt.Sprintf("We received your payment of %s for loan %s. Remaining balance: %s.",
			p.Amount.StringFixed(2), p.LoanRef, p.BalanceAfter.StringFixed(2))
		if p.FullyPaid {
			body += " Your loan is now fully paid."
		}
		return d.notify(ctx, p.MemberID, "Loan repayment received", body)

	case outbox.TypeLoanPenalty:
		var p outbox.PenaltyPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return d.notify(ctx, p.MemberID, "Late payment penalty",
			fmt.Sprintf("A late payment penalty of %s was charged on loan %s.", p.Amount.StringFixed(2), p.LoanRef))

	case outbox.TypeInterestPosted:
		var p outbox.InterestPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return d.notify(ctx, p.MemberID, "Interest credited",
			fmt.Sprintf("Interest of %s for %s was credited to account %s. New balance: %s.",
				p.Amount.StringFixed(2), p.Period, p.AccountRef, p.BalanceAfter.StringFixed(2)))
	}
	return fmt.Errorf("unknown event type %q", e.Type)
}

func humanTxn(t string) string {
	if t == string(account.TxnWithdrawal) {
		return "Withdrawal"
	}
	return "Deposit"
}

// notify skips members that no longer exist or have no address.
func (d *Dispatcher) notify(ctx context.Context, memberID, subject, body string) error {
	if d.notifier == nil {
		return nil
	}
	m, err := d.members.GetByMemberID(ctx, memberID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load member %s: %w", memberID, err)
	}
	return d.notifier.Notify(ctx, Notification{
		MemberID: m.MemberID, Email: m.Email, Name: m.FullName, Subject: subject, Body: body,
	})
}
