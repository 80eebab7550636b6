package policy

import (
	"context"
	"testing"

	"coop-ledger/internal/adapter/repository/mysql"
	"coop-ledger/internal/domain/setting"
	"coop-ledger/internal/testutil/dbtest"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicy(t *testing.T) (*Policy, *mysql.SettingRepository, *test.Hook) {
	t.Helper()
	repo := mysql.NewSettingRepository(dbtest.Open(t))
	log, hook := test.NewNullLogger()
	return New(repo, Defaults{InactiveDays: 90, TerminatedDays: 365, PenaltyRate: dbtest.D("5")}, log), repo, hook
}

func TestPolicy_Defaults(t *testing.T) {
	p, _, _ := newPolicy(t)
	ctx := context.Background()

	inactive, terminated := p.InactivityThresholds(ctx)
	assert.Equal(t, 90, inactive)
	assert.Equal(t, 365, terminated)
	assert.True(t, p.PenaltyRate(ctx).Equal(dbtest.D("5")))
}

func TestPolicy_StoredValuesWin(t *testing.T) {
	p, repo, _ := newPolicy(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, setting.KeyInactiveDays, "60"))
	require.NoError(t, repo.Set(ctx, setting.KeyTerminatedDays, "180"))
	require.NoError(t, repo.Set(ctx, setting.KeyPenaltyRate, "2.5"))

	inactive, terminated := p.InactivityThresholds(ctx)
	assert.Equal(t, 60, inactive)
	assert.Equal(t, 180, terminated)
	assert.True(t, p.PenaltyRate(ctx).Equal(dbtest.D("2.5")))
}

func TestPolicy_InvalidValuesFallBack(t *testing.T) {
	p, repo, hook := newPolicy(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, setting.KeyInactiveDays, "400"))
	require.NoError(t, repo.Set(ctx, setting.KeyPenaltyRate, "lots"))

	inactive, terminated := p.InactivityThresholds(ctx)
	assert.Equal(t, 90, inactive)
	assert.Equal(t, 365, terminated)
	assert.True(t, p.PenaltyRate(ctx).Equal(dbtest.D("5")))
	assert.NotEmpty(t, hook.AllEntries())
}
