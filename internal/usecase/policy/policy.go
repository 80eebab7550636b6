// Package policy reads the runtime thresholds the back office can change
// without a deploy, falling back to the process configuration.
package policy

import (
	"context"
	"strconv"

	"coop-ledger/internal/domain/setting"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Defaults struct {
	InactiveDays   int
	TerminatedDays int
	PenaltyRate    decimal.Decimal
}

type Policy struct {
	settings setting.Repository
	defaults Defaults
	log      *logrus.Logger
}

func New(settings setting.Repository, defaults Defaults, log *logrus.Logger) *Policy {
	return &Policy{settings: settings, defaults: defaults, log: log}
}

// InactivityThresholds returns (inactiveAfter, terminatedAfter) in days.
func (p *Policy) InactivityThresholds(ctx context.Context) (int, int) {
	inactive := p.intSetting(ctx, setting.KeyInactiveDays, p.defaults.InactiveDays)
	terminated := p.intSetting(ctx, setting.KeyTerminatedDays, p.defaults.TerminatedDays)
	if inactive >= terminated {
		p.log.WithFields(logrus.Fields{"inactive_days": inactive, "terminated_days": terminated}).
			Warn("inconsistent inactivity settings, using defaults")
		return p.defaults.InactiveDays, p.defaults.TerminatedDays
	}
	return inactive, terminated
}

// PenaltyRate is the default percent charged per overdue month.
func (p *Policy) PenaltyRate(ctx context.Context) decimal.Decimal {
	raw, ok := p.lookup(ctx, setting.KeyPenaltyRate)
	if !ok {
		return p.defaults.PenaltyRate
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		p.log.WithFields(logrus.Fields{"key": setting.KeyPenaltyRate, "value": raw}).Warn("invalid setting, using default")
		return p.defaults.PenaltyRate
	}
	return v
}

func (p *Policy) intSetting(ctx context.Context, key string, def int) int {
	raw, ok := p.lookup(ctx, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		p.log.WithFields(logrus.Fields{"key": key, "value": raw}).Warn("invalid setting, using default")
		return def
	}
	return n
}

func (p *Policy) lookup(ctx context.Context, key string) (string, bool) {
	if p.settings == nil {
		return "", false
	}
	v, ok, err := p.settings.Get(ctx, key)
	if err != nil {
		p.log.WithError(err).WithField("key", key).Warn("read setting")
		return "", false
	}
	return v, ok
}
