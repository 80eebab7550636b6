package mysql

import (
	"context"
	"time"

	outboxDomain "coop-ledger/internal/domain/outbox"

	"gorm.io/gorm"
)

type OutboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) *OutboxRepository { return &OutboxRepository{db: db} }

func (r *OutboxRepository) Create(ctx context.Context, e *outboxDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit, maxAttempts int) ([]outboxDomain.Event, error) {
	var out []outboxDomain.Event
	res := r.db.WithContext(ctx).
		Where("delivered_at IS NULL AND attempts < ?", maxAttempts).
		Order("id").
		Limit(limit).
		Find(&out)
	return out, res.Error
}

func (r *OutboxRepository) MarkDelivered(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxDomain.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{"delivered_at": at, "attempts": gorm.Expr("attempts + 1")}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64, reason string) error {
	return r.db.WithContext(ctx).
		Model(&outboxDomain.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_error": reason, "attempts": gorm.Expr("attempts + 1")}).Error
}
