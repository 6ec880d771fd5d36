package main

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
	"github.com/vladislavdragonenkov/reassign/internal/storage/memory"
)

func seedJournal(t *testing.T) (domain.TransactionLog, []string) {
	t.Helper()

	journal := memory.NewTransactionLog()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	keys := []string{
		domain.NewTransactionKey(base),
		domain.NewTransactionKey(base.Add(time.Second)),
	}
	for i, key := range keys {
		tx := domain.Transaction{
			Key: key,
			Draft: domain.ProductDraft{
				Key:           "draft-" + string(rune('a'+i)),
				ProductTypeID: "pt-1",
				Slug:          domain.LocalizedString{"en": "slug"},
				MasterVariant: domain.VariantDraft{SKU: "sku-1"},
			},
			CreatedAt: base,
		}
		if err := journal.Append(context.Background(), tx); err != nil {
			t.Fatalf("seed journal: %v", err)
		}
	}
	return journal, keys
}

func TestSelectTransactions_All(t *testing.T) {
	journal, keys := seedJournal(t)

	transactions, err := selectTransactions(context.Background(), journal, "")
	if err != nil {
		t.Fatalf("selectTransactions failed: %v", err)
	}
	if len(transactions) != len(keys) {
		t.Fatalf("expected %d transactions, got %d", len(keys), len(transactions))
	}
}

func TestSelectTransactions_ByKey(t *testing.T) {
	journal, keys := seedJournal(t)

	transactions, err := selectTransactions(context.Background(), journal, keys[0])
	if err != nil {
		t.Fatalf("selectTransactions failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(transactions))
	}
	if transactions[0].Key != keys[0] {
		t.Fatalf("unexpected key: %s", transactions[0].Key)
	}
}

func TestSelectTransactions_MissingKey(t *testing.T) {
	journal, _ := seedJournal(t)

	transactions, err := selectTransactions(context.Background(), journal, "no-such-key")
	if err != nil {
		t.Fatalf("selectTransactions failed: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("expected no transactions, got %d", len(transactions))
	}
}

func TestPrintTransaction(_ *testing.T) {
	// Не должно паниковать на полностью заполненной записи.
	backup := domain.ProductDraft{Key: "backup", MasterVariant: domain.VariantDraft{SKU: "sku-2"}}
	printTransaction(domain.Transaction{
		Key: domain.NewTransactionKey(time.Now()),
		Draft: domain.ProductDraft{
			Key:           "draft",
			MasterVariant: domain.VariantDraft{SKU: "sku-1"},
		},
		Variants:        []domain.Variant{{ID: 1, SKU: "sku-1"}},
		BackupDraft:     &backup,
		ProductToUpdate: &domain.Product{ID: "prod-1"},
		CreatedAt:       time.Now().Add(-time.Minute),
	})
}
