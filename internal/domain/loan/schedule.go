package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole UTC calendar days from a to b.
func DaysBetween(a, b time.Time) int { return int(day(b).Sub(day(a)).Hours() / 24) }

func PeriodsPerYear(f Frequency) int {
	switch f {
	case FrequencyWeekly:
		return 52
	case FrequencyQuarterly:
		return 4
	default:
		return 12
	}
}

// PeriodDays is the nominal length of one repayment period.
func PeriodDays(f Frequency) int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyQuarterly:
		return 90
	default:
		return 30
	}
}

// Advance moves a due date forward by one repayment period.
func Advance(t time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Installments is the number of scheduled payments over the term.
func (l *Loan) Installments() int {
	n := (l.TermMonths*PeriodsPerYear(l.RepaymentFrequency) + 11) / 12
	if n < 1 {
		return 1
	}
	return n
}

// FlatTotal is principal + principal × rate/100 × term/12.
func FlatTotal(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	interest := principal.Mul(annualRate).Div(hundred).Mul(decimal.NewFromInt(int64(termMonths))).Div(twelve)
	return principal.Add(interest).Round(2)
}

func floor0(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func (l *Loan) RemainingPrincipal() decimal.Decimal {
	return floor0(l.ApprovedAmount.Sub(l.PrincipalPaid))
}

func (l *Loan) UnpaidPenalty() decimal.Decimal {
	return floor0(l.TotalPenalty.Sub(l.PenaltyPaid))
}

// Outstanding is what the member still owes.
// FLAT: fixed total + penalties - everything paid.
// DECLINING: remaining principal + unpaid penalties.
func (l *Loan) Outstanding() decimal.Decimal {
	if l.InterestType == InterestFlat {
		return floor0(l.FlatTotal.Add(l.TotalPenalty).Sub(l.TotalPaid))
	}
	return l.RemainingPrincipal().Add(l.UnpaidPenalty())
}

type Installment struct {
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Total     decimal.Decimal `json:"total"`
}

// ExpectedPayment is the installment due for the current period.
func (l *Loan) ExpectedPayment() Installment {
	n := l.Installments()
	if l.InterestType == InterestFlat {
		nd := decimal.NewFromInt(int64(n))
		principal := l.ApprovedAmount.Div(nd).Round(2)
		interest := l.FlatTotal.Sub(l.ApprovedAmount).Div(nd).Round(2)
		return Installment{Principal: principal, Interest: interest, Total: principal.Add(interest)}
	}

	rem := l.RemainingPrincipal()
	if rem.IsZero() {
		return Installment{Principal: decimal.Zero, Interest: decimal.Zero, Total: decimal.Zero}
	}
	left := n - l.PaymentsMade
	if left < 1 {
		left = 1
	}
	r := l.InterestRate.Div(hundred).Div(decimal.NewFromInt(int64(PeriodsPerYear(l.RepaymentFrequency))))
	if r.IsZero() {
		p := rem.Div(decimal.NewFromInt(int64(left))).Round(2)
		return Installment{Principal: p, Interest: decimal.Zero, Total: p}
	}
	// P·r·(1+r)^n / ((1+r)^n − 1)
	growth := decimal.NewFromInt(1).Add(r).Pow(decimal.NewFromInt(int64(left)))
	emi := rem.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	interest := rem.Mul(r).Round(2)
	principal := emi.Round(2).Sub(interest)
	if principal.GreaterThan(rem) {
		principal = rem
	}
	return Installment{Principal: principal, Interest: interest, Total: principal.Add(interest)}
}

// MonthsOverdue counts whole calendar months from due to asOf.
func MonthsOverdue(due, asOf time.Time) int {
	due, asOf = day(due), day(asOf)
	if !asOf.After(due) {
		return 0
	}
	m := (asOf.Year()-due.Year())*12 + int(asOf.Month()) - int(due.Month())
	if asOf.Day() < due.Day() {
		m--
	}
	if m < 0 {
		return 0
	}
	return m
}

// DaysOverdue is zero until the due date has passed.
func (l *Loan) DaysOverdue(asOf time.Time) int {
	if l.NextPaymentDate == nil {
		return 0
	}
	d := DaysBetween(*l.NextPaymentDate, asOf)
	if d < 0 {
		return 0
	}
	return d
}

// PeriodsMissed is floor(daysOverdue / period length).
func (l *Loan) PeriodsMissed(asOf time.Time) int {
	return l.DaysOverdue(asOf) / PeriodDays(l.RepaymentFrequency)
}

// Penalty is expected.Total × rate/100 × months overdue, counting at least one
// month once a full repayment period has passed so weekly loans are not exempt.
func (l *Loan) Penalty(asOf time.Time, rate decimal.Decimal) decimal.Decimal {
	if l.WorkflowStatus != StatusApproved || l.IsFullyPaid || l.NextPaymentDate == nil {
		return decimal.Zero
	}
	months := MonthsOverdue(*l.NextPaymentDate, asOf)
	if months == 0 && l.PeriodsMissed(asOf) > 0 {
		months = 1
	}
	if months == 0 {
		return decimal.Zero
	}
	return l.ExpectedPayment().Total.Mul(rate).Div(hundred).Mul(decimal.NewFromInt(int64(months))).Round(2)
}

// PenaltyBaseline is the date the next penalty window is measured from:
// the last posting, or the missed due date when nothing has been posted yet.
func (l *Loan) PenaltyBaseline() *time.Time {
	if l.LastPenaltyDate != nil {
		return l.LastPenaltyDate
	}
	return l.NextPaymentDate
}

// PenaltyPostedThisCycle reports whether a penalty was posted on or after the current due date.
func (l *Loan) PenaltyPostedThisCycle() bool {
	if l.LastPenaltyDate == nil || l.NextPaymentDate == nil {
		return false
	}
	return !day(*l.LastPenaltyDate).Before(day(*l.NextPaymentDate))
}

// PostPenalty books amount as owed penalty.
func (l *Loan) PostPenalty(amount decimal.Decimal, at time.Time) {
	l.TotalPenalty = l.TotalPenalty.Add(amount)
	d := day(at)
	l.LastPenaltyDate = &d
	l.OutstandingBalance = l.Outstanding()
}

type Allocation struct {
	Penalty   decimal.Decimal `json:"penalty"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Remainder decimal.Decimal `json:"remainder"`
}

func (a Allocation) Applied() decimal.Decimal { return a.Penalty.Add(a.Interest).Add(a.Principal) }

// Allocate splits amount penalty first, then the period's interest, then
// principal up to what the loan can still absorb. Whatever is left is Remainder.
func (l *Loan) Allocate(amount decimal.Decimal) Allocation {
	rem := amount
	take := func(limit decimal.Decimal) decimal.Decimal {
		limit = floor0(limit)
		if rem.LessThan(limit) {
			limit = rem
		}
		rem = rem.Sub(limit)
		return limit
	}

	penaltyDue := l.UnpaidPenalty()
	exp := l.ExpectedPayment()

	var a Allocation
	a.Penalty = take(penaltyDue)
	a.Interest = take(exp.Interest)
	room := l.RemainingPrincipal()
	if l.InterestType == InterestFlat {
		room = l.Outstanding().Sub(penaltyDue).Sub(a.Interest)
	}
	a.Principal = take(room)
	a.Remainder = rem
	return a
}

// ApplyRepayment folds an allocation into the running totals and moves the schedule.
func (l *Loan) ApplyRepayment(a Allocation, at time.Time) {
	l.TotalPaid = l.TotalPaid.Add(a.Applied())
	l.PenaltyPaid = l.PenaltyPaid.Add(a.Penalty)
	l.InterestPaid = l.InterestPaid.Add(a.Interest)
	l.PrincipalPaid = l.PrincipalPaid.Add(a.Principal)
	l.PaymentsMade++
	paidOn := day(at)
	l.LastPaymentDate = &paidOn
	l.OutstandingBalance = l.Outstanding()

	if !l.OutstandingBalance.IsPositive() {
		l.IsFullyPaid = true
		l.NextPaymentDate = nil
		return
	}
	if l.NextPaymentDate != nil {
		next := Advance(*l.NextPaymentDate, l.RepaymentFrequency)
		l.NextPaymentDate = &next
	}
}

// Approve fixes the amortization basis and the first due date.
func (l *Loan) Approve(disbursedAt time.Time) {
	if l.InterestType == InterestFlat {
		l.FlatTotal = FlatTotal(l.ApprovedAmount, l.InterestRate, l.TermMonths)
	}
	l.WorkflowStatus = StatusApproved
	d := day(disbursedAt)
	l.DisbursementDate = &d
	next := Advance(d, l.RepaymentFrequency)
	l.NextPaymentDate = &next
	l.OutstandingBalance = l.Outstanding()
}
