package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

func TestTransactionLogIntegration_AppendGetDelete(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	journal := NewTransactionLog(store)
	ctx := context.Background()

	draft := domain.ProductDraft{
		Key:           "draft-1",
		ProductTypeID: "pt-1",
		Slug:          domain.LocalizedString{"en": "sample-slug"},
		MasterVariant: domain.VariantDraft{SKU: "sku-1"},
	}
	tx := domain.Transaction{
		Key:       domain.NewTransactionKey(time.Now()),
		Draft:     draft,
		Variants:  []domain.Variant{{ID: 1, SKU: "sku-1"}},
		CreatedAt: time.Now(),
	}

	require.NoError(t, journal.Append(ctx, tx))

	loaded, err := journal.Get(ctx, tx.Key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, tx.Key, loaded.Key)
	assert.Equal(t, "draft-1", loaded.Draft.Key)
	require.Len(t, loaded.Variants, 1)
	assert.Equal(t, "sku-1", loaded.Variants[0].SKU)

	require.NoError(t, journal.Delete(ctx, tx.Key))

	gone, err := journal.Get(ctx, tx.Key)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTransactionLogIntegration_AppendIsUpsert(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	journal := NewTransactionLog(store)
	ctx := context.Background()

	tx := domain.Transaction{
		Key:       domain.NewTransactionKey(time.Now()),
		Draft:     domain.ProductDraft{Key: "draft-upsert"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, journal.Append(ctx, tx))

	tx.ProductToUpdate = &domain.Product{ID: "prod-1", Version: 3}
	require.NoError(t, journal.Append(ctx, tx))

	loaded, err := journal.Get(ctx, tx.Key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.ProductToUpdate)
	assert.Equal(t, "prod-1", loaded.ProductToUpdate.ID)

	all, err := journal.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, journal.Delete(ctx, tx.Key))
}

func TestTransactionLogIntegration_ListAllOrderedByKey(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	journal := NewTransactionLog(store)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	keys := []string{
		domain.NewTransactionKey(base.Add(2 * time.Second)),
		domain.NewTransactionKey(base),
		domain.NewTransactionKey(base.Add(time.Second)),
	}
	for _, key := range keys {
		require.NoError(t, journal.Append(ctx, domain.Transaction{Key: key, CreatedAt: base}))
	}

	all, err := journal.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Key, all[i].Key)
	}
}

func TestOutboxRepositoryIntegration_EnqueuePullMark(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	first, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "reassignment",
		AggregateID:   "draft-1",
		EventType:     "reassign.draft.completed",
		Payload:       []byte(`{"draftName":"draft-1"}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "reassignment",
		AggregateID:   "draft-2",
		EventType:     "reassign.draft.failed",
		Payload:       []byte(`{"draftName":"draft-2"}`),
	})
	require.NoError(t, err)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingCount)
	assert.False(t, stats.OldestPendingAt.IsZero())

	require.NoError(t, repo.MarkSent(first.ID))
	require.NoError(t, repo.MarkFailed(second.ID))

	pending, err = repo.PullPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxRepositoryIntegration_MarkUnknownID(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	err := repo.MarkSent("9b6aee10-6cb1-4f8f-9286-111111111111")
	assert.ErrorIs(t, err, domain.ErrOutboxPublish)
}
