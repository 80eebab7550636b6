package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coop-ledger/internal/adapter/repository/mysql"
	"coop-ledger/internal/apperr"
	idemDomain "coop-ledger/internal/domain/idempotency"
	"coop-ledger/internal/testutil/dbtest"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receipt struct {
	TxnID   string `json:"txn_id"`
	Balance string `json:"balance"`
}

type depositBody struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

func newGuard(t *testing.T) (*Guard, *mysql.IdempotencyRepository) {
	t.Helper()
	repo := mysql.NewIdempotencyRepository(dbtest.Open(t))
	log, _ := test.NewNullLogger()
	return NewGuard(repo, log), repo
}

func req(key string, body depositBody) Request {
	return Request{Key: key, CallerID: "teller-1", Operation: "deposit", Body: body}
}

func TestDo_ReplaysIdenticalRequest(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()
	body := depositBody{AccountID: "A1", Amount: "100.00"}

	calls := 0
	fn := func(context.Context) (*receipt, error) {
		calls++
		return &receipt{TxnID: "TX-1", Balance: "100.00"}, nil
	}

	first, err := Do(ctx, g, req("k-1", body), fn)
	require.NoError(t, err)
	second, err := Do(ctx, g, req("k-1", body), fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, *first, *second)
}

func TestDo_KeyReusedWithDifferentPayload(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) (*receipt, error) { calls++; return &receipt{TxnID: "TX-1"}, nil }

	_, err := Do(ctx, g, req("k-2", depositBody{AccountID: "A1", Amount: "100.00"}), fn)
	require.NoError(t, err)
	_, err = Do(ctx, g, req("k-2", depositBody{AccountID: "A1", Amount: "999.00"}), fn)

	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.Equal(t, 1, calls)
}

func TestDo_MissingKey(t *testing.T) {
	g, _ := newGuard(t)
	_, err := Do(context.Background(), g, req("", depositBody{}), func(context.Context) (*receipt, error) {
		t.Fatal("fn must not run without a key")
		return nil, nil
	})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestDo_ReplaysBusinessError(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()
	body := depositBody{AccountID: "A1", Amount: "500.00"}

	calls := 0
	fn := func(context.Context) (*receipt, error) {
		calls++
		return nil, apperr.InsufficientFunds(dbtest.D("120.50"))
	}

	_, err := Do(ctx, g, req("k-3", body), fn)
	require.Equal(t, apperr.KindInsufficientFunds, apperr.KindOf(err))

	_, err = Do(ctx, g, req("k-3", body), fn)
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, apperr.KindInsufficientFunds, e.Kind)
	require.NotNil(t, e.Available)
	assert.True(t, e.Available.Equal(dbtest.D("120.50")))
	assert.Equal(t, 1, calls)
}

func TestDo_InternalErrorReleasesKey(t *testing.T) {
	g, repo := newGuard(t)
	ctx := context.Background()
	body := depositBody{AccountID: "A1", Amount: "10.00"}

	_, err := Do(ctx, g, req("k-4", body), func(context.Context) (*receipt, error) {
		return nil, errors.New("connection reset")
	})
	require.Error(t, err)
	_, err = repo.GetByKey(ctx, "k-4")
	require.Error(t, err, "key should have been released")

	out, err := Do(ctx, g, req("k-4", body), func(context.Context) (*receipt, error) {
		return &receipt{TxnID: "TX-9"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "TX-9", out.TxnID)
}

func TestDo_InProgress(t *testing.T) {
	g, repo := newGuard(t)
	ctx := context.Background()
	r := req("k-5", depositBody{AccountID: "A1", Amount: "10.00"})

	body := []byte(`{"account_id":"A1","amount":"10.00"}`)
	require.NoError(t, repo.Create(ctx, &idemDomain.Record{
		Key: r.Key, CallerID: r.CallerID, Operation: r.Operation,
		RequestHash: Fingerprint(r.Key, r.CallerID, r.Operation, body),
	}))

	_, err := Do(ctx, g, r, func(context.Context) (*receipt, error) {
		t.Fatal("fn must not run while the first request is in flight")
		return nil, nil
	})
	assert.Equal(t, apperr.KindInProgress, apperr.KindOf(err))
}

func TestFingerprint_SeparatesFields(t *testing.T) {
	a := Fingerprint("k", "ab", "c", []byte("{}"))
	b := Fingerprint("k", "a", "bc", []byte("{}"))
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestDo_CallerHangsUpAfterWork(t *testing.T) {
	g, _ := newGuard(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	body := depositBody{AccountID: "A1", Amount: "25.00"}

	runs := 0
	fn := func(context.Context) (*receipt, error) {
		runs++
		cancel()
		return &receipt{TxnID: "TX-7", Balance: "25.00"}, nil
	}

	_, err := Do(ctx, g, req("k-6", body), fn)
	require.NoError(t, err)

	out, err := Do(context.Background(), g, req("k-6", body), fn)
	require.NoError(t, err)
	assert.Equal(t, "TX-7", out.TxnID)
	assert.Equal(t, 1, runs)
}

func seedUnfinished(t *testing.T, repo *mysql.IdempotencyRepository, r Request, at time.Time) {
	t.Helper()
	body, err := json.Marshal(r.Body)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &idemDomain.Record{
		Key: r.Key, CallerID: r.CallerID, Operation: r.Operation,
		RequestHash: Fingerprint(r.Key, r.CallerID, r.Operation, body),
		CreatedAt:   at,
	}))
}

func TestDo_StaleClaimIsTakenOver(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	g, repo := newGuard(t)
	g.WithClock(func() time.Time { return now }).WithStaleAfter(time.Minute)
	r := req("k-7", depositBody{AccountID: "A1", Amount: "10.00"})
	seedUnfinished(t, repo, r, now.Add(-10*time.Minute))

	runs := 0
	fn := func(context.Context) (*receipt, error) { runs++; return &receipt{TxnID: "TX-8"}, nil }

	out, err := Do(context.Background(), g, r, fn)
	require.NoError(t, err)
	assert.Equal(t, "TX-8", out.TxnID)

	_, err = Do(context.Background(), g, r, fn)
	require.NoError(t, err)
	assert.Equal(t, 1, runs)

	rec, err := repo.GetByKey(context.Background(), r.Key)
	require.NoError(t, err)
	assert.False(t, rec.InProgress())
}

func TestDo_FreshClaimStillBlocks(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	g, repo := newGuard(t)
	g.WithClock(func() time.Time { return now }).WithStaleAfter(time.Minute)
	r := req("k-8", depositBody{AccountID: "A1", Amount: "10.00"})
	seedUnfinished(t, repo, r, now.Add(-30*time.Second))

	_, err := Do(context.Background(), g, r, func(context.Context) (*receipt, error) {
		t.Fatal("fn must not run inside the stale window")
		return nil, nil
	})
	assert.Equal(t, apperr.KindInProgress, apperr.KindOf(err))
}

func TestDo_ConflictReleasesKey(t *testing.T) {
	g, repo := newGuard(t)
	ctx := context.Background()
	r := req("k-9", depositBody{AccountID: "A1", Amount: "10.00"})

	_, err := Do(ctx, g, r, func(context.Context) (*receipt, error) { return nil, apperr.Conflict(nil) })
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	_, err = repo.GetByKey(ctx, r.Key)
	require.Error(t, err)

	out, err := Do(ctx, g, r, func(context.Context) (*receipt, error) { return &receipt{TxnID: "TX-10"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "TX-10", out.TxnID)
}
