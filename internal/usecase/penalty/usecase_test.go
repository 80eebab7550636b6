package penalty

import (
	"context"
	"testing"
	"time"

	"coop-ledger/internal/adapter/repository/mysql"
	"coop-ledger/internal/domain/loan"
	"coop-ledger/internal/domain/member"
	"coop-ledger/internal/domain/outbox"
	"coop-ledger/internal/testutil/dbtest"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixedRate string

func (r fixedRate) PenaltyRate(context.Context) decimal.Decimal {
	return decimal.RequireFromString(string(r))
}

var disbursed = dbtest.Day(2026, 1, 15) // first due 2026-02-15, installment 11200

func setup(t *testing.T, now *time.Time) (*gorm.DB, *Usecase) {
	t.Helper()
	db := dbtest.Open(t)
	log, _ := test.NewNullLogger()
	uc := NewUsecase(mysql.NewLoanRepository(db), mysql.NewGormUoW(db), fixedRate("5"), log).
		WithClock(func() time.Time { return *now })
	dbtest.Member(t, db, "M1", member.StatusActive, nil)
	return db, uc
}

func flatLoan(t *testing.T, db *gorm.DB) *loan.Loan {
	return dbtest.ApprovedLoan(t, db, "M1", "120000", "12", loan.InterestFlat, 12, loan.FrequencyMonthly, disbursed)
}

func reload(t *testing.T, db *gorm.DB, l *loan.Loan) *loan.Loan {
	t.Helper()
	got, err := mysql.NewLoanRepository(db).GetByLoanID(context.Background(), l.LoanID)
	require.NoError(t, err)
	return got
}

func TestRunPenaltyAccrual_PostsOncePerPeriod(t *testing.T) {
	now := time.Date(2026, 3, 17, 2, 0, 0, 0, time.UTC)
	db, uc := setup(t, &now)
	l := flatLoan(t, db)

	s, err := uc.RunPenaltyAccrual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Posted)
	assert.True(t, s.TotalAmount.Equal(dbtest.D("560")))

	got := reload(t, db, l)
	assert.True(t, got.TotalPenalty.Equal(dbtest.D("560")))
	assert.True(t, got.OutstandingBalance.Equal(dbtest.D("134960")))
	require.NotNil(t, got.LastPenaltyDate)
	assert.Equal(t, dbtest.Day(2026, 3, 17), got.LastPenaltyDate.UTC())
	assert.Equal(t, int64(1), got.Version)

	var audits []loan.PenaltyAudit
	require.NoError(t, db.Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, 1, audits[0].PeriodsMissed)
	assert.Equal(t, 30, audits[0].DaysOverdue)
	assert.Equal(t, SourceBatch, audits[0].Source)
	assert.True(t, audits[0].ExpectedPayment.Equal(dbtest.D("11200")))

	var events []outbox.Event
	require.NoError(t, db.Where("type = ?", outbox.TypeLoanPenalty).Find(&events).Error)
	assert.Len(t, events, 1)

	// same day and within the following period: no second charge
	s, err = uc.RunPenaltyAccrual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Skipped)
	now = now.AddDate(0, 0, 29)
	s, err = uc.RunPenaltyAccrual(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.Posted)

	now = now.AddDate(0, 0, 1)
	s, err = uc.RunPenaltyAccrual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Posted)
}

func TestRunPenaltyAccrual_SkipsLessThanAPeriod(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	db, uc := setup(t, &now)
	flatLoan(t, db)

	s, err := uc.RunPenaltyAccrual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Checked)
	assert.Equal(t, 1, s.Skipped)
	assert.Zero(t, s.Posted)
}

func TestRunPenaltyAccrual_LoanRateOverridesDefault(t *testing.T) {
	now := time.Date(2026, 3, 17, 2, 0, 0, 0, time.UTC)
	db, uc := setup(t, &now)
	l := flatLoan(t, db)
	require.NoError(t, db.Model(&loan.Loan{}).Where("id = ?", l.ID).Update("penalty_rate", dbtest.D("10")).Error)

	s, err := uc.RunPenaltyAccrual(context.Background())
	require.NoError(t, err)
	assert.True(t, s.TotalAmount.Equal(dbtest.D("1120")))
}

func TestRunPenaltyAccrual_IgnoresNotDueAndUnapproved(t *testing.T) {
	now := time.Date(2026, 2, 15, 2, 0, 0, 0, time.UTC)
	db, uc := setup(t, &now)
	flatLoan(t, db)
	pending := &loan.Loan{LoanID: "LN-PENDING", MemberID: "M1", ApprovedAmount: dbtest.D("1000"),
		InterestRate: dbtest.D("10"), InterestType: loan.InterestFlat, TermMonths: 6,
		RepaymentFrequency: loan.FrequencyMonthly, WorkflowStatus: loan.StatusPending}
	require.NoError(t, mysql.NewLoanRepository(db).Create(context.Background(), pending))

	s, err := uc.RunPenaltyAccrual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Checked, "only the approved loan is a candidate")
	assert.Zero(t, s.Posted, "due today is not overdue")
}

func TestDue(t *testing.T) {
	l := &loan.Loan{ApprovedAmount: dbtest.D("120000"), InterestRate: dbtest.D("12"), InterestType: loan.InterestFlat,
		TermMonths: 12, RepaymentFrequency: loan.FrequencyMonthly}
	l.Approve(disbursed)
	rate := dbtest.D("5")

	assert.True(t, Due(l, dbtest.Day(2026, 2, 15), rate).IsZero())
	assert.True(t, Due(l, dbtest.Day(2026, 3, 17), rate).Equal(dbtest.D("560")))

	l.PostPenalty(dbtest.D("560"), dbtest.Day(2026, 3, 17))
	assert.True(t, Due(l, dbtest.Day(2026, 4, 1), rate).IsZero())
}
