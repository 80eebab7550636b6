package member

import (
	"time"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusTerminated Status = "TERMINATED"
)

type Member struct {
	ID               uint64     `gorm:"primaryKey;column:id" json:"-"`
	MemberID         string     `gorm:"size:32;uniqueIndex:ux_members_member_id" json:"member_id"`
	FullName         string     `gorm:"size:128" json:"full_name"`
	Email            string     `gorm:"size:128" json:"email"`
	Status           Status     `gorm:"type:varchar(16);not null;default:'ACTIVE';index:idx_members_status" json:"status"`
	LastActivityDate *time.Time `gorm:"type:date" json:"last_activity_date,omitempty"`
	InactivityDays   int        `gorm:"not null;default:0" json:"inactivity_days"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string { return "members" }

// StatusAudit records every status transition, automatic or manual.
type StatusAudit struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	MemberID  uint64    `gorm:"not null;index:idx_member_status_audits_member"`
	OldStatus Status    `gorm:"type:varchar(16);not null"`
	NewStatus Status    `gorm:"type:varchar(16);not null"`
	Reason    string    `gorm:"size:255"`
	Notes     string    `gorm:"type:text"`
	Actor     string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (StatusAudit) TableName() string { return "member_status_audits" }

// DaysBetween counts whole calendar days from a to b (both truncated to UTC dates).
func DaysBetween(a, b time.Time) int {
	a = Day(a)
	b = Day(b)
	return int(b.Sub(a).Hours() / 24)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextStatus applies the inactivity policy to a member idle for days.
// It never promotes; only reactivation goes back to ACTIVE.
func NextStatus(cur Status, days, inactiveAfter, terminatedAfter int) (Status, string) {
	switch {
	case days >= terminatedAfter:
		return StatusTerminated, "no activity for terminated threshold"
	case days >= inactiveAfter && cur == StatusActive:
		return StatusInactive, "no activity for inactive threshold"
	default:
		return cur, ""
	}
}
