package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/storage/memory"
)

func enqueueEvent(t *testing.T, repo domain.OutboxRepository, eventType string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "checkout",
		AggregateID:   "kiki-1700000000000",
		EventType:     eventType,
		Payload:       []byte(`{}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestOutboxRepository_EnqueueAssignsID(t *testing.T) {
	repo := memory.NewOutboxRepository()

	msg := enqueueEvent(t, repo, "checkout.confirmed")
	if msg.ID == "" {
		t.Fatal("enqueue must assign an id")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("expected the enqueued message in pending, got %v", pending)
	}
}

func TestOutboxRepository_PullPendingOrderAndLimit(t *testing.T) {
	repo := memory.NewOutboxRepository()
	first := enqueueEvent(t, repo, "checkout.started")
	time.Sleep(time.Millisecond)
	enqueueEvent(t, repo, "checkout.confirmed")

	pending, err := repo.PullPending(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected limit to cap the batch at 1, got %d", len(pending))
	}
	if pending[0].ID != first.ID {
		t.Errorf("expected the oldest message first, got %s", pending[0].EventType)
	}
}

func TestOutboxRepository_MarkSentRemovesFromPending(t *testing.T) {
	repo := memory.NewOutboxRepository()
	msg := enqueueEvent(t, repo, "checkout.confirmed")

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatal(err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages after MarkSent, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkFailedRemovesFromPending(t *testing.T) {
	repo := memory.NewOutboxRepository()
	msg := enqueueEvent(t, repo, "checkout.confirmed")

	if err := repo.MarkFailed(msg.ID); err != nil {
		t.Fatal(err)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages after MarkFailed, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkUnknownID(t *testing.T) {
	repo := memory.NewOutboxRepository()

	if err := repo.MarkSent("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Errorf("MarkSent: expected ErrOutboxPublish, got %v", err)
	}
	if err := repo.MarkFailed("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Errorf("MarkFailed: expected ErrOutboxPublish, got %v", err)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := memory.NewOutboxRepository()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	first := enqueueEvent(t, repo, "checkout.started")
	time.Sleep(time.Millisecond)
	enqueueEvent(t, repo, "checkout.confirmed")

	stats, err = repo.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PendingCount != 2 {
		t.Errorf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Error("expected non-zero oldest pending timestamp")
	}

	if err := repo.MarkSent(first.ID); err != nil {
		t.Fatal(err)
	}
	stats, err = repo.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PendingCount != 1 {
		t.Errorf("expected 1 pending after MarkSent, got %d", stats.PendingCount)
	}
}
