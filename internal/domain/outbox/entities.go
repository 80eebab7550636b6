package outbox

import (
	"context"
	"time"
)

const (
	TypeAccountMovement = "account.movement"
	TypeLoanRepayment   = "loan.repayment"
	TypeLoanPenalty     = "loan.penalty"
	TypeInterestPosted  = "account.interest"
)

// Event is written in the same transaction as the financial change it describes
// and delivered at least once after commit.
type Event struct {
	ID          uint64     `gorm:"primaryKey;column:id"`
	EventID     string     `gorm:"size:36;not null;uniqueIndex:ux_outbox_events_event_id"`
	Type        string     `gorm:"size:32;not null"`
	Payload     []byte     `gorm:"type:blob;not null"`
	Attempts    int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"type:text"`
	DeliveredAt *time.Time `gorm:"index:idx_outbox_events_pending"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
}

func (Event) TableName() string { return "outbox_events" }

type Repository interface {
	Create(ctx context.Context, e *Event) error
	// ListPending returns undelivered events below maxAttempts, oldest first.
	ListPending(ctx context.Context, limit, maxAttempts int) ([]Event, error)
	MarkDelivered(ctx context.Context, id uint64, at time.Time) error
	MarkFailed(ctx context.Context, id uint64, reason string) error
}
