package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
	"github.com/vladislavdragonenkov/reassign/internal/service/catalog"
	"github.com/vladislavdragonenkov/reassign/internal/storage/memory"
	"github.com/vladislavdragonenkov/reassign/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Catalog    domain.CatalogGateway
	Journal    domain.TransactionLog
	OutboxRepo domain.OutboxRepository
	Store      *postgres.Store
	Logger     *log.Entry
}

// NewDependencies создаёт и инициализирует зависимости приложения.
// Журнал и outbox живут в PostgreSQL, если задан DSN, иначе в памяти.
// NOTE: каталог здесь in-memory; в production внедряется клиент
// реального API каталога.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Catalog: catalog.NewMockGateway(),
		Logger:  logger,
	}

	if cfg.PostgresDSN == "" {
		deps.Journal = memory.NewTransactionLog()
		deps.OutboxRepo = memory.NewOutboxRepository()
		logger.Info("using in-memory journal and outbox")
		return deps, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}

	deps.Store = store
	deps.Journal = postgres.NewTransactionLog(store)
	deps.OutboxRepo = postgres.NewOutboxRepository(store)
	logger.Info("using postgres journal and outbox")
	return deps, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d == nil || d.Store == nil {
		return
	}
	if err := d.Store.Close(); err != nil {
		d.Logger.WithError(err).Warn("failed to close postgres store")
	}
}
