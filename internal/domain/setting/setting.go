package setting

import (
	"context"
	"time"
)

const (
	KeyInactiveDays   = "member.inactive_days"
	KeyTerminatedDays = "member.terminated_days"
	KeyPenaltyRate    = "loan.penalty_rate"
)

// Setting is one row of the key-value configuration store shared with the back office.
type Setting struct {
	Key       string    `gorm:"column:setting_key;primaryKey;size:64"`
	Value     string    `gorm:"column:setting_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Setting) TableName() string { return "system_settings" }

type Repository interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
