// Package activity tracks member activity and demotes idle members.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coop-ledger/internal/apperr"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/uow"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Thresholds supplies the inactive and terminated day counts.
type Thresholds interface {
	InactivityThresholds(ctx context.Context) (inactiveAfter, terminatedAfter int)
}

type Summary struct {
	Checked     int `json:"checked"`
	Inactivated int `json:"inactivated"`
	Terminated  int `json:"terminated"`
	Unchanged   int `json:"unchanged"`
	Failed      int `json:"failed"`
}

type Usecase struct {
	members    member.Repository
	uow        uow.UnitOfWork
	thresholds Thresholds
	log        *logrus.Logger
	now        func() time.Time
}

func NewUsecase(members member.Repository, tx uow.UnitOfWork, thresholds Thresholds, log *logrus.Logger) *Usecase {
	return &Usecase{members: members, uow: tx, thresholds: thresholds, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase { u.now = now; return u }

// UpdateMemberActivity marks memberID as active today.
func (u *Usecase) UpdateMemberActivity(ctx context.Context, memberID string) error {
	if err := u.members.TouchActivity(ctx, memberID, member.Day(u.now())); err != nil {
		return fmt.Errorf("touch activity %s: %w", memberID, err)
	}
	return nil
}

// RunInactivityScan applies the inactivity policy to every scannable member.
func (u *Usecase) RunInactivityScan(ctx context.Context) (*Summary, error) {
	now := u.now()
	inactiveAfter, terminatedAfter := u.thresholds.InactivityThresholds(ctx)

	members, err := u.members.ListScannable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	s := &Summary{}
	for i := range members {
		m := &members[i]
		s.Checked++
		days := member.DaysBetween(*m.LastActivityDate, now)
		next, reason := member.NextStatus(m.Status, days, inactiveAfter, terminatedAfter)

		entry := u.log.WithFields(logrus.Fields{"member_id": m.MemberID, "days_idle": days})
		if err := u.apply(ctx, m, days, next, reason); err != nil {
			s.Failed++
			entry.WithError(err).Error("inactivity transition failed")
			continue
		}
		switch {
		case next == m.Status:
			s.Unchanged++
			continue
		case next == member.StatusTerminated:
			s.Terminated++
		default:
			s.Inactivated++
		}
		entry.WithFields(logrus.Fields{"old_status": m.Status, "new_status": next}).Info("member status changed")
	}
	u.log.WithFields(logrus.Fields{
		"job": "inactivity", "checked": s.Checked, "inactivated": s.Inactivated,
		"terminated": s.Terminated, "failed": s.Failed,
	}).Info("inactivity scan finished")
	return s, nil
}

func (u *Usecase) apply(ctx context.Context, m *member.Member, days int, next member.Status, reason string) error {
	if next == m.Status && m.InactivityDays == days {
		return nil
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		updated := *m
		updated.InactivityDays = days
		if next != m.Status {
			updated.Status = next
			if err := r.Members.CreateStatusAudit(ctx, &member.StatusAudit{
				MemberID:  m.ID,
				OldStatus: m.Status,
				NewStatus: next,
				Reason:    fmt.Sprintf("%s (%d days)", reason, days),
				Actor:     "system",
			}); err != nil {
				return err
			}
		}
		return r.Members.Save(ctx, &updated)
	})
}

// ReactivateMember is the only way back to ACTIVE.
func (u *Usecase) ReactivateMember(ctx context.Context, memberID, notes, actor string) (*member.Member, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, apperr.New(apperr.KindBadRequest, "actor is required")
	}
	var out *member.Member
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		m, err := r.Members.GetByMemberID(ctx, memberID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "member %s not found", memberID)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "load member")
		}
		if m.Status == member.StatusActive {
			return apperr.New(apperr.KindMemberState, "member %s is already active", memberID)
		}
		old := m.Status
		today := member.Day(u.now())
		m.Status = member.StatusActive
		m.LastActivityDate = &today
		m.InactivityDays = 0
		if err := r.Members.CreateStatusAudit(ctx, &member.StatusAudit{
			MemberID: m.ID, OldStatus: old, NewStatus: member.StatusActive,
			Reason: "manual reactivation", Notes: notes, Actor: actor,
		}); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "write status audit")
		}
		if err := r.Members.Save(ctx, m); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "save member")
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, apperr.Ensure(err, "reactivate member")
	}
	u.log.WithFields(logrus.Fields{"member_id": memberID, "actor": actor}).Info("member reactivated")
	return out, nil
}
