package mysql

import (
	"context"
	"time"

	idemDomain "coop-ledger/internal/domain/idempotency"

	"gorm.io/gorm"
)

type IdempotencyRepository struct{ db *gorm.DB }

func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) GetByKey(ctx context.Context, key string) (*idemDomain.Record, error) {
	var out idemDomain.Record
	res := r.db.WithContext(ctx).Where("idem_key = ?", key).First(&out)
	return &out, res.Error
}

func (r *IdempotencyRepository) Create(ctx context.Context, rec *idemDomain.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, statusCode int, body []byte) error {
	return r.db.WithContext(ctx).
		Model(&idemDomain.Record{}).
		Where("idem_key = ?", key).
		Updates(map[string]any{"status_code": statusCode, "body": body}).Error
}

func (r *IdempotencyRepository) Reclaim(ctx context.Context, key string, staleBefore, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&idemDomain.Record{}).
		Where("idem_key = ? AND status_code = 0 AND created_at < ?", key, staleBefore).
		Update("created_at", now)
	return res.RowsAffected == 1, res.Error
}

func (r *IdempotencyRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("idem_key = ?", key).Delete(&idemDomain.Record{}).Error
}
