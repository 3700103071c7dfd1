package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"formations/internal/adapters/storage"
	outboxStore "formations/internal/adapters/storage/outbox"
	"formations/internal/adapters/storage/storagetest"
	domain "formations/internal/domain/outbox"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newEntry(id string, created time.Time) domain.Entry {
	return domain.Entry{
		ID:          id,
		ActionType:  domain.ActionTypeAdminEmail,
		Payload:     `{"course_id":"c1"}`,
		Status:      domain.StatusPending,
		MaxAttempts: domain.DefaultMaxAttempts,
		CreatedAt:   created,
	}
}

func TestSQLiteStore_PendingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := outboxStore.NewSQLiteStore(storagetest.Open(t))

	first := newEntry("o1", base)
	second := newEntry("o2", base.Add(time.Minute))
	for _, e := range []domain.Entry{second, first} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	pending, err := store.ListPending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ID != "o1" {
		t.Fatalf("pending = %+v", pending)
	}

	first.MarkAttempt(base.Add(time.Hour))
	first.MarkSuccess("msg-123")
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetByID(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusDone || got.ExternalID != "msg-123" || got.Attempts != 1 {
		t.Errorf("got = %+v", got)
	}
	if !got.LastAttemptedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("LastAttemptedAt = %v", got.LastAttemptedAt)
	}

	pending, _ = store.ListPending(ctx, 10)
	if len(pending) != 1 || pending[0].ID != "o2" {
		t.Errorf("pending after success = %+v", pending)
	}
}

func TestSQLiteStore_ListFailedAndDelete(t *testing.T) {
	ctx := context.Background()
	store := outboxStore.NewSQLiteStore(storagetest.Open(t))

	e := newEntry("o1", base)
	e.MaxAttempts = 1
	e.MarkAttempt(base)
	e.MarkFailed(errors.New("smtp down"))
	if err := store.Save(ctx, e); err != nil {
		t.Fatal(err)
	}

	failed, err := store.ListFailed(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].ErrorMessage != "smtp down" {
		t.Fatalf("failed = %+v", failed)
	}

	if err := store.Delete(ctx, "o1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetByID(ctx, "o1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByID after Delete = %v", err)
	}
}
