package idempotency

import (
	"context"
	"time"
)

// Record caches the outcome of a keyed request. StatusCode zero marks a request
// that is still executing.
type Record struct {
	ID          uint64    `gorm:"primaryKey;column:id"`
	Key         string    `gorm:"column:idem_key;size:64;not null;uniqueIndex:ux_idempotency_records_key"`
	CallerID    string    `gorm:"size:64;not null"`
	Operation   string    `gorm:"size:64;not null"`
	RequestHash string    `gorm:"type:char(64);not null"`
	StatusCode  int       `gorm:"not null;default:0"`
	Body        []byte    `gorm:"type:blob"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Record) TableName() string { return "idempotency_records" }

func (r *Record) InProgress() bool { return r.StatusCode == 0 }

type Repository interface {
	GetByKey(ctx context.Context, key string) (*Record, error)
	// Create fails on a duplicate key; the unique index arbitrates first use.
	Create(ctx context.Context, r *Record) error
	Complete(ctx context.Context, key string, statusCode int, body []byte) error
	// Reclaim takes over an unfinished record created before staleBefore,
	// restamping it at now. Only one caller can win.
	Reclaim(ctx context.Context, key string, staleBefore, now time.Time) (bool, error)
	Delete(ctx context.Context, key string) error
}
