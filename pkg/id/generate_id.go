package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Public references shown to members and staff: a type prefix plus 24 upper-case hex.
const (
	PrefixLoan        = "LN"
	PrefixTransaction = "TX"
	PrefixRepayment   = "RP"
)

func NewRef(prefix string) string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(b))
}

func NewLoanRef() string        { return NewRef(PrefixLoan) }
func NewTransactionRef() string { return NewRef(PrefixTransaction) }
func NewRepaymentRef() string   { return NewRef(PrefixRepayment) }
