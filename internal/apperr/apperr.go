package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindInvalidAmount     Kind = "invalid_amount"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindAccountState      Kind = "account_state"
	KindMemberState       Kind = "member_state"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindAlreadySettled    Kind = "already_settled"
	KindBadRequest        Kind = "bad_request"
	KindInProgress        Kind = "in_progress"
	KindInternal          Kind = "internal"
)

// Error is the structured failure returned by every ledger operation.
// Available is set for insufficient funds, Latest for version conflicts.
type Error struct {
	Kind      Kind
	Message   string
	Available *decimal.Decimal
	Latest    any
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// wire is the JSON shape cached by the idempotency guard and written by the http adapter.
type wire struct {
	Kind      Kind             `json:"kind"`
	Message   string           `json:"error"`
	Available *decimal.Decimal `json:"available,omitempty"`
	Latest    any              `json:"latest,omitempty"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{Kind: e.Kind, Message: e.Message, Available: e.Available, Latest: e.Latest})
}

// Decode rebuilds an *Error from its JSON form. Latest is kept as raw JSON.
func Decode(b []byte) (*Error, error) {
	var w struct {
		Kind      Kind             `json:"kind"`
		Message   string           `json:"error"`
		Available *decimal.Decimal `json:"available,omitempty"`
		Latest    json.RawMessage  `json:"latest,omitempty"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	if w.Kind == "" {
		return nil, errors.New("apperr: missing kind")
	}
	e := &Error{Kind: w.Kind, Message: w.Message, Available: w.Available}
	if len(w.Latest) > 0 {
		e.Latest = w.Latest
	}
	return e, nil
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: err}
}

func InsufficientFunds(available decimal.Decimal) *Error {
	return &Error{
		Kind:      KindInsufficientFunds,
		Message:   "insufficient available balance",
		Available: &available,
	}
}

func Conflict(latest any) *Error {
	return &Error{Kind: KindConflict, Message: "record was modified concurrently", Latest: latest}
}

// KindOf reports the kind of err; anything not produced by this package is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidAmount, KindBadRequest:
		return http.StatusBadRequest
	case KindInsufficientFunds, KindAccountState, KindMemberState, KindAlreadySettled:
		return http.StatusUnprocessableEntity
	case KindConflict, KindInProgress:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Ensure passes *Error values through and wraps anything else as internal.
func Ensure(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(KindInternal, err, msg)
}
