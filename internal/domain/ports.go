package domain

import (
	"context"
	"time"
)

// CatalogGateway описывает взаимодействие с API каталога продуктов.
// Все вызовы сетевые и могут завершаться временными ошибками, включая
// ErrConcurrencyConflict при устаревшей версии.
type CatalogGateway interface {
	// FetchBySKUsAndSlugs выполняет батчевую выборку продуктов, владеющих
	// любым из SKU либо конфликтующих по slug хотя бы в одной локали.
	FetchBySKUsAndSlugs(ctx context.Context, skus []string, slugs []LocalizedString) ([]Product, error)
	// FetchBySKUs выполняет батчевую выборку продуктов по SKU.
	FetchBySKUs(ctx context.Context, skus []string) ([]Product, error)
	// FetchByID возвращает продукт или (nil, nil), если его нет (404 — не ошибка).
	FetchByID(ctx context.Context, id string) (*Product, error)
	// Create создаёт продукт из драфта.
	Create(ctx context.Context, draft ProductDraft) (Product, error)
	// Update применяет действия к продукту; возвращает свежую версию.
	Update(ctx context.Context, id string, version int64, actions []UpdateAction) (Product, error)
	// Delete удаляет продукт.
	Delete(ctx context.Context, id string, version int64) error
	// FetchProductType возвращает определение типа продукта.
	FetchProductType(ctx context.Context, id string) (ProductType, error)
}

// TransactionLog — durable-журнал обработки драфтов.
// Записи живут в пространстве имён TransactionContainer.
type TransactionLog interface {
	// Append сохраняет запись журнала.
	Append(ctx context.Context, tx Transaction) error
	// Get возвращает запись или (nil, nil), если её нет.
	Get(ctx context.Context, key string) (*Transaction, error)
	// ListAll возвращает все записи журнала в порядке ключей.
	ListAll(ctx context.Context) ([]Transaction, error)
	// Delete удаляет запись журнала.
	Delete(ctx context.Context, key string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
