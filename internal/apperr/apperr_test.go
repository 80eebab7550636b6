package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "account %s", "x")))

	wrapped := fmt.Errorf("deposit: %w", Conflict(nil))
	assert.True(t, Is(wrapped, KindConflict))
}

func TestInsufficientFunds_RoundTrip(t *testing.T) {
	e := InsufficientFunds(decimal.RequireFromString("12.50"))

	b, err := json.Marshal(e)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, KindInsufficientFunds, got.Kind)
	require.NotNil(t, got.Available)
	assert.True(t, got.Available.Equal(decimal.RequireFromString("12.5")))
}

func TestDecode_MissingKind(t *testing.T) {
	_, err := Decode([]byte(`{"error":"x"}`))
	assert.Error(t, err)
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("db down")
	e := Wrap(KindInternal, cause, "load account")
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "db down")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidAmount:     http.StatusBadRequest,
		KindBadRequest:        http.StatusBadRequest,
		KindInsufficientFunds: http.StatusUnprocessableEntity,
		KindConflict:          http.StatusConflict,
		KindInProgress:        http.StatusConflict,
		KindNotFound:          http.StatusNotFound,
		KindInternal:          http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, HTTPStatus(k), "kind %s", k)
	}
}

func TestEnsure(t *testing.T) {
	assert.NoError(t, Ensure(nil, "x"))

	typed := New(KindNotFound, "account %s not found", "A1")
	assert.Same(t, typed, Ensure(typed, "load"))

	wrapped := Ensure(errors.New("timeout"), "load account")
	assert.Equal(t, KindInternal, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "load account")
}
