package member

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByMemberID(ctx context.Context, memberID string) (*Member, error)
	Save(ctx context.Context, m *Member) error
	// TouchActivity stamps last_activity_date and zeroes inactivity_days.
	TouchActivity(ctx context.Context, memberID string, day time.Time) error
	// ListScannable returns ACTIVE and INACTIVE members with a known last activity.
	ListScannable(ctx context.Context) ([]Member, error)
	CreateStatusAudit(ctx context.Context, a *StatusAudit) error
	ListStatusAudits(ctx context.Context, memberNumericID uint64) ([]StatusAudit, error)
}
