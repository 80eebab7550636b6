package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period returns the YYYY-MM bucket used by the monthly balance trackers.
func Period(t time.Time) string { return t.UTC().Format("2006-01") }

// PeriodStart is midnight UTC on the first day of t's month.
func PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Track folds a post-transaction balance into the opening/minimum trackers.
// The first transaction of a new period resets both to the new balance;
// later ones keep the opening and only ever lower the minimum. A balance from
// a period older than the one being tracked is ignored and Track reports false.
func (a *Account) Track(newBalance decimal.Decimal, at time.Time) bool {
	p := Period(at)
	switch {
	case a.TrackingPeriod != "" && p < a.TrackingPeriod:
		return false
	case a.TrackingPeriod != p:
		a.TrackingPeriod = p
		a.MonthOpeningBalance = newBalance
		a.MonthMinimumBalance = newBalance
	case newBalance.LessThan(a.MonthMinimumBalance):
		a.MonthMinimumBalance = newBalance
	}
	return true
}

// InterestBase picks the balance interest is paid on: the period minimum when a
// withdrawal pulled it below the opening balance, otherwise the opening balance.
func (a *Account) InterestBase() (decimal.Decimal, bool) {
	if a.MonthMinimumBalance.LessThan(a.MonthOpeningBalance) {
		return a.MonthMinimumBalance, true
	}
	return a.MonthOpeningBalance, false
}

var twelveHundred = decimal.NewFromInt(1200)

// MonthlyInterest is base × annualRate/100/12 rounded to cents.
func MonthlyInterest(base, annualRate decimal.Decimal) decimal.Decimal {
	return base.Mul(annualRate).Div(twelveHundred).Round(2)
}
