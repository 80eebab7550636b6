package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	idemDomain "coop-ledger/internal/domain/idempotency"

	"gorm.io/gorm"
)

func TestIdempotency_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()

	rec := &idemDomain.Record{Key: "k-1", CallerID: "teller-1", Operation: "deposit", RequestHash: "abc"}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// unique key arbitrates the second first-use
	if err := repo.Create(ctx, &idemDomain.Record{Key: "k-1", CallerID: "teller-2", Operation: "deposit", RequestHash: "def"}); err == nil {
		t.Fatalf("expected duplicate key error")
	}

	got, err := repo.GetByKey(ctx, "k-1")
	if err != nil || !got.InProgress() {
		t.Fatalf("expected in-progress record, got %+v err=%v", got, err)
	}

	if err := repo.Complete(ctx, "k-1", 201, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ = repo.GetByKey(ctx, "k-1")
	if got.StatusCode != 201 || string(got.Body) != `{"ok":true}` || got.RequestHash != "abc" {
		t.Fatalf("unexpected completed record: %+v", got)
	}

	if err := repo.Delete(ctx, "k-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByKey(ctx, "k-1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestIdempotency_ReclaimOnlyStaleUnfinished(t *testing.T) {
	db := openTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()
	old := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	now := old.Add(time.Hour)

	for _, k := range []string{"stale", "done"} {
		if err := repo.Create(ctx, &idemDomain.Record{Key: k, CallerID: "c", Operation: "deposit", RequestHash: "h", CreatedAt: old}); err != nil {
			t.Fatalf("Create %s: %v", k, err)
		}
	}
	if err := repo.Complete(ctx, "done", 201, []byte(`{}`)); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	ok, err := repo.Reclaim(ctx, "done", now.Add(-time.Minute), now)
	if err != nil || ok {
		t.Fatalf("completed record must not be reclaimed: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Reclaim(ctx, "stale", now.Add(-time.Minute), now)
	if err != nil || !ok {
		t.Fatalf("expected reclaim, ok=%v err=%v", ok, err)
	}
	// restamped, so a second caller loses
	ok, err = repo.Reclaim(ctx, "stale", now.Add(-time.Minute), now)
	if err != nil || ok {
		t.Fatalf("second reclaim should lose: ok=%v err=%v", ok, err)
	}
}
