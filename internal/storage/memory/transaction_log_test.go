package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

func testTransaction(key, draftKey string) domain.Transaction {
	return domain.Transaction{
		Key: key,
		Draft: domain.ProductDraft{
			Key:           draftKey,
			MasterVariant: domain.VariantDraft{SKU: "sku-1"},
		},
		CreatedAt: time.Now(),
	}
}

func TestTransactionLog_AppendGetDelete(t *testing.T) {
	t.Parallel()

	journal := NewTransactionLog()
	ctx := context.Background()

	tx := testTransaction("k1", "jacket")
	if err := journal.Append(ctx, tx); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := journal.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Draft.Key != "jacket" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if err := journal.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = journal.Get(ctx, "k1")
	if err != nil || got != nil {
		t.Fatalf("expected nil after delete, got %v, %v", got, err)
	}
}

func TestTransactionLog_AppendIsUpsert(t *testing.T) {
	t.Parallel()

	journal := NewTransactionLog()
	ctx := context.Background()

	if err := journal.Append(ctx, testTransaction("k1", "before")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := journal.Append(ctx, testTransaction("k1", "after")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	all, err := journal.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 1 || all[0].Draft.Key != "after" {
		t.Fatalf("expected single overwritten record, got %+v", all)
	}
}

func TestTransactionLog_ListAllOrdered(t *testing.T) {
	t.Parallel()

	journal := NewTransactionLog()
	ctx := context.Background()

	for _, key := range []string{"k3", "k1", "k2"} {
		if err := journal.Append(ctx, testTransaction(key, key)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all, err := journal.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 || all[0].Key != "k1" || all[2].Key != "k3" {
		t.Fatalf("expected ascending key order, got %+v", all)
	}
}

func TestTransactionLog_DeleteMissingIsNoop(t *testing.T) {
	t.Parallel()

	journal := NewTransactionLog()
	if err := journal.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("expected noop delete, got %v", err)
	}
}
