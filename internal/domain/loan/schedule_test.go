package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func approvedFlat(t *testing.T) *Loan {
	t.Helper()
	l := &Loan{
		ApprovedAmount:     d("120000"),
		InterestRate:       d("12"),
		InterestType:       InterestFlat,
		TermMonths:         12,
		RepaymentFrequency: FrequencyMonthly,
	}
	l.Approve(date(2026, 1, 15))
	return l
}

func approvedDeclining(t *testing.T) *Loan {
	t.Helper()
	l := &Loan{
		ApprovedAmount:     d("12000"),
		InterestRate:       d("12"),
		InterestType:       InterestDeclining,
		TermMonths:         12,
		RepaymentFrequency: FrequencyMonthly,
	}
	l.Approve(date(2026, 1, 15))
	return l
}

func TestFlatTotalAndInstallment(t *testing.T) {
	l := approvedFlat(t)

	assert.True(t, l.FlatTotal.Equal(d("134400")), "flat total %s", l.FlatTotal)
	assert.True(t, l.OutstandingBalance.Equal(d("134400")))

	exp := l.ExpectedPayment()
	assert.True(t, exp.Total.Equal(d("11200")), "installment %s", exp.Total)
	assert.True(t, exp.Interest.Equal(d("1200")))
	assert.True(t, exp.Principal.Equal(d("10000")))

	require.NotNil(t, l.NextPaymentDate)
	assert.Equal(t, date(2026, 2, 15), *l.NextPaymentDate)
}

func TestDecliningEMI(t *testing.T) {
	l := approvedDeclining(t)

	assert.True(t, l.OutstandingBalance.Equal(d("12000")))
	exp := l.ExpectedPayment()
	// 12000 at 1%/month over 12 months
	assert.True(t, exp.Total.Equal(d("1066.19")), "emi %s", exp.Total)
	assert.True(t, exp.Interest.Equal(d("120")))
	assert.True(t, exp.Principal.Equal(d("946.19")))
}

func TestDecliningZeroRate(t *testing.T) {
	l := &Loan{ApprovedAmount: d("1200"), InterestType: InterestDeclining, TermMonths: 12, RepaymentFrequency: FrequencyMonthly}
	exp := l.ExpectedPayment()
	assert.True(t, exp.Total.Equal(d("100")))
	assert.True(t, exp.Interest.IsZero())
}

func TestInstallments(t *testing.T) {
	cases := map[Frequency]int{FrequencyWeekly: 52, FrequencyMonthly: 12, FrequencyQuarterly: 4}
	for f, want := range cases {
		l := &Loan{TermMonths: 12, RepaymentFrequency: f}
		assert.Equal(t, want, l.Installments(), string(f))
	}
}

func TestMonthsOverdue(t *testing.T) {
	due := date(2026, 1, 15)
	assert.Equal(t, 0, MonthsOverdue(due, date(2026, 1, 15)))
	assert.Equal(t, 0, MonthsOverdue(due, date(2026, 1, 10)))
	assert.Equal(t, 0, MonthsOverdue(due, date(2026, 2, 14)))
	assert.Equal(t, 1, MonthsOverdue(due, date(2026, 2, 15)))
	assert.Equal(t, 3, MonthsOverdue(due, date(2026, 5, 1)))
}

func TestPenalty(t *testing.T) {
	l := approvedFlat(t)
	rate := d("5")

	t.Run("zero on and before the due date", func(t *testing.T) {
		assert.True(t, l.Penalty(date(2026, 2, 15), rate).IsZero())
		assert.True(t, l.Penalty(date(2026, 2, 1), rate).IsZero())
	})
	t.Run("positive after a full period", func(t *testing.T) {
		// 11200 × 5% × 1
		assert.True(t, l.Penalty(date(2026, 3, 17), rate).Equal(d("560")))
	})
	t.Run("scales with months overdue", func(t *testing.T) {
		assert.True(t, l.Penalty(date(2026, 5, 20), rate).Equal(d("1680")))
	})
	t.Run("zero unless approved", func(t *testing.T) {
		pending := *l
		pending.WorkflowStatus = StatusPending
		assert.True(t, pending.Penalty(date(2026, 6, 1), rate).IsZero())
	})
	t.Run("weekly loans count one month after one week", func(t *testing.T) {
		w := &Loan{ApprovedAmount: d("5200"), InterestType: InterestFlat, TermMonths: 12, RepaymentFrequency: FrequencyWeekly}
		w.Approve(date(2026, 1, 1))
		due := *w.NextPaymentDate
		assert.True(t, w.Penalty(due.AddDate(0, 0, 6), rate).IsZero())
		assert.True(t, w.Penalty(due.AddDate(0, 0, 7), rate).IsPositive())
	})
}

func TestAllocate_Priority(t *testing.T) {
	l := approvedFlat(t)
	l.PostPenalty(d("500"), date(2026, 3, 20))
	// P = 500, I = 1200

	t.Run("below penalty goes entirely to penalty", func(t *testing.T) {
		a := l.Allocate(d("300"))
		assert.True(t, a.Penalty.Equal(d("300")))
		assert.True(t, a.Interest.IsZero())
		assert.True(t, a.Principal.IsZero())
		assert.True(t, a.Remainder.IsZero())
	})
	t.Run("between P and P+I spills into interest", func(t *testing.T) {
		a := l.Allocate(d("1000"))
		assert.True(t, a.Penalty.Equal(d("500")))
		assert.True(t, a.Interest.Equal(d("500")))
		assert.True(t, a.Principal.IsZero())
	})
	t.Run("above P+I reaches principal", func(t *testing.T) {
		a := l.Allocate(d("11700"))
		assert.True(t, a.Penalty.Equal(d("500")))
		assert.True(t, a.Interest.Equal(d("1200")))
		assert.True(t, a.Principal.Equal(d("10000")))
		assert.True(t, a.Remainder.IsZero())
	})
	t.Run("principal is capped and the rest is remainder", func(t *testing.T) {
		a := l.Allocate(d("200000"))
		assert.True(t, a.Applied().Equal(l.Outstanding()), "applied %s outstanding %s", a.Applied(), l.Outstanding())
		assert.True(t, a.Remainder.Equal(d("200000").Sub(l.Outstanding())))
	})
}

func TestAllocate_DecliningCapsAtRemainingPrincipal(t *testing.T) {
	l := approvedDeclining(t)
	a := l.Allocate(d("20000"))
	assert.True(t, a.Interest.Equal(d("120")))
	assert.True(t, a.Principal.Equal(d("12000")))
	assert.True(t, a.Remainder.Equal(d("7880")))
}

func TestApplyRepayment_AdvancesAndSettles(t *testing.T) {
	l := approvedFlat(t)
	first := *l.NextPaymentDate

	l.ApplyRepayment(l.Allocate(d("11200")), date(2026, 2, 15))
	assert.True(t, l.OutstandingBalance.Equal(d("123200")))
	assert.Equal(t, 1, l.PaymentsMade)
	require.NotNil(t, l.NextPaymentDate)
	assert.Equal(t, first.AddDate(0, 1, 0), *l.NextPaymentDate)
	assert.False(t, l.IsFullyPaid)

	l.ApplyRepayment(l.Allocate(l.OutstandingBalance), date(2026, 3, 15))
	assert.True(t, l.IsFullyPaid)
	assert.Nil(t, l.NextPaymentDate)
	assert.True(t, l.OutstandingBalance.IsZero())
	assert.True(t, l.TotalPaid.Equal(d("134400")))
}

func TestPenaltyPostedThisCycle(t *testing.T) {
	l := approvedFlat(t)
	assert.False(t, l.PenaltyPostedThisCycle())
	assert.Equal(t, *l.NextPaymentDate, *l.PenaltyBaseline())

	l.PostPenalty(d("10"), l.NextPaymentDate.AddDate(0, 1, 1))
	assert.True(t, l.PenaltyPostedThisCycle())
	assert.True(t, l.OutstandingBalance.Equal(d("134410")))
}
