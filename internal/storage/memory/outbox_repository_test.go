package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

func TestOutboxRepository_EnqueueAssignsID(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "reassignment",
		AggregateID:   "jacket",
		EventType:     "draft.completed",
		Payload:       []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected generated id")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("PullPending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
}

func TestOutboxRepository_MarkSentRemovesFromPending(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	msg, err := repo.Enqueue(domain.OutboxMessage{EventType: "draft.completed"})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("PullPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty pending, got %+v", pending)
	}
}

func TestOutboxRepository_MarkUnknownID(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	if err := repo.MarkSent("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
	if err := repo.MarkFailed("missing"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}

func TestOutboxRepository_PullPendingHonorsLimit(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	for i := 0; i < 5; i++ {
		if _, err := repo.Enqueue(domain.OutboxMessage{EventType: "draft.completed"}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	pending, err := repo.PullPending(3)
	if err != nil {
		t.Fatalf("PullPending failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected limit respected, got %d", len(pending))
	}

	// limit <= 0 использует значение по умолчанию.
	pending, err = repo.PullPending(0)
	if err != nil {
		t.Fatalf("PullPending failed: %v", err)
	}
	if len(pending) != 5 {
		t.Fatalf("expected all pending, got %d", len(pending))
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	t.Parallel()

	repo := NewOutboxRepository()
	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.PendingCount != 0 || !stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}

	first, err := repo.Enqueue(domain.OutboxMessage{EventType: "draft.completed"})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := repo.Enqueue(domain.OutboxMessage{EventType: "draft.failed"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Fatal("expected oldest pending timestamp")
	}

	if err := repo.MarkFailed(first.ID); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	stats, err = repo.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.PendingCount != 1 {
		t.Fatalf("expected 1 pending after failure, got %d", stats.PendingCount)
	}
}
