package reassign

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
	"github.com/vladislavdragonenkov/reassign/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/reassign/internal/metrics"
)

// Engine — верхнеуровневый движок переназначения вариантов. Итерация по
// драфтам строго последовательна: два драфта могут легитимно адресовать
// пересекающихся доноров, и конкурентная обработка гонялась бы на их версиях.
type Engine struct {
	catalog       domain.CatalogGateway
	journal       domain.TransactionLog
	coordinator   *Coordinator
	outbox        domain.OutboxRepository
	kafkaProducer *kafka.Producer // опциональный Kafka producer для event-driven архитектуры
	logger        *log.Entry
	metrics       *metrics.ReassignMetrics
	resumed       bool
}

// NewEngine создаёт рабочий экземпляр движка.
// retainAttributes — имена атрибутов, чьи существующие значения сохраняются
// при переезде варианта вместо значений из драфта.
func NewEngine(
	catalog domain.CatalogGateway,
	journal domain.TransactionLog,
	retainAttributes []string,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "reassign-engine")
	}
	m := metrics.NewReassignMetrics()
	return &Engine{
		catalog:     catalog,
		journal:     journal,
		coordinator: NewCoordinator(catalog, journal, NewSameForAllResolver(catalog), retainAttributes, logger, m),
		logger:      logger,
		metrics:     m,
	}
}

// NewEngineWithOutbox создаёт движок, публикующий события обработки в outbox,
// и опционально напрямую в Kafka.
func NewEngineWithOutbox(
	catalog domain.CatalogGateway,
	journal domain.TransactionLog,
	outbox domain.OutboxRepository,
	kafkaProducer *kafka.Producer,
	retainAttributes []string,
	logger *log.Entry,
) *Engine {
	engine := NewEngine(catalog, journal, retainAttributes, logger)
	engine.outbox = outbox
	engine.kafkaProducer = kafkaProducer
	return engine
}

// NewEngineWithoutMetrics создаёт движок без метрик (для тестов).
func NewEngineWithoutMetrics(
	catalog domain.CatalogGateway,
	journal domain.TransactionLog,
	retainAttributes []string,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "reassign-engine")
	}
	return &Engine{
		catalog:     catalog,
		journal:     journal,
		coordinator: NewCoordinator(catalog, journal, NewSameForAllResolver(catalog), retainAttributes, logger, nil),
		logger:      logger,
	}
}

// Execute обрабатывает батч драфтов и возвращает агрегированную статистику.
// Ошибка возвращается только для фатальных для всего батча случаев: журнал
// нечитаем либо массовая выборка продуктов не удалась. Пер-драфтовые сбои
// поглощаются в статистику и никогда не всплывают к вызывающему.
//
// productTypeTable — таблица имя→id; если ProductTypeID драфта оказался
// именем из таблицы, он заменяется на реальный идентификатор.
func (e *Engine) Execute(
	ctx context.Context,
	drafts []domain.ProductDraft,
	productTypeTable map[string]string,
) (domain.Statistics, error) {
	var stats domain.Statistics

	if err := e.resumeUnfinished(ctx, &stats); err != nil {
		return stats, err
	}

	skus, slugs := batchFetchArguments(drafts)
	products, err := e.catalog.FetchBySKUsAndSlugs(ctx, skus, slugs)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", domain.ErrBulkFetchFailed, err)
	}
	all := make([]*domain.Product, 0, len(products))
	for i := range products {
		all = append(all, &products[i])
	}
	index := domain.BuildSKUIndex(all)

	for i := range drafts {
		if id, ok := productTypeTable[drafts[i].ProductTypeID]; ok {
			drafts[i].ProductTypeID = id
		}
	}

	for _, draft := range drafts {
		if !NeedsReassignment(draft, index, all) {
			continue
		}

		stats.RecordProcessed(draft.SKUs())
		if e.metrics != nil {
			e.metrics.RecordDraftProcessed()
		}

		start := time.Now()
		err := e.processWithRetry(ctx, draft, index, all, &stats)
		if e.metrics != nil {
			e.metrics.RecordDraftDuration(time.Since(start))
		}

		if err != nil {
			stats.RecordFailed(draft.SKUs())
			if domain.IsBadRequest(err) {
				stats.RecordBadRequest()
			}
			if e.metrics != nil {
				e.metrics.RecordDraftFailed()
			}
			e.logger.WithError(err).WithField("skus", draft.SKUs()).Error("draft failed after retry")
			e.emitEvent(kafka.EventTypeDraftFailed, draft, map[string]interface{}{
				"reason": err.Error(),
			})
			continue
		}

		if e.metrics != nil {
			e.metrics.RecordDraftSucceeded()
		}
		e.emitEvent(kafka.EventTypeDraftCompleted, draft, nil)
	}

	return stats, nil
}

// processWithRetry выполняет последовательность координатора для драфта не
// более двух раз. При сбое первой попытки ищется незавершённая транзакция
// с тем же именем драфта: найдена — возобновляем её, нет — повторяем с нуля
// по свежему состоянию каталога. Второй сбой отдаётся вызывающему.
func (e *Engine) processWithRetry(
	ctx context.Context,
	draft domain.ProductDraft,
	index domain.SKUIndex,
	all []*domain.Product,
	stats *domain.Statistics,
) error {
	matching := MatchingProducts(draft, index, all)
	firstErr := e.coordinator.ProcessDraft(ctx, draft, matching, stats)
	if firstErr == nil {
		return nil
	}

	e.logger.WithError(firstErr).WithField("skus", draft.SKUs()).Warn("draft processing failed, retrying once")
	stats.RecordRetry()
	if e.metrics != nil {
		e.metrics.RecordRetry()
	}

	if unfinished, err := e.journal.ListAll(ctx); err == nil {
		for _, tx := range unfinished {
			if tx.Draft.Name() == draft.Name() {
				return e.coordinator.Resume(ctx, tx, stats)
			}
		}
	}

	products, err := e.catalog.FetchBySKUsAndSlugs(ctx, draft.SKUs(), []domain.LocalizedString{draft.Slug})
	if err != nil {
		return fmt.Errorf("refetch products for retry: %w", err)
	}
	if len(products) == 0 {
		// Частично выполненная первая попытка могла довести каталог до
		// состояния, в котором драфту больше нечего переназначать.
		return nil
	}
	matching = make([]*domain.Product, 0, len(products))
	for i := range products {
		matching = append(matching, &products[i])
	}
	return e.coordinator.ProcessDraft(ctx, draft, matching, stats)
}

// resumeUnfinished выполняется один раз на экземпляр движка: возобновляет все
// незавершённые транзакции из журнала. Любой сбой здесь фатален для вызова.
func (e *Engine) resumeUnfinished(ctx context.Context, stats *domain.Statistics) error {
	if e.resumed {
		return nil
	}

	unfinished, err := e.journal.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrJournalUnavailable, err)
	}
	if e.metrics != nil {
		e.metrics.SetPendingTransactions(len(unfinished))
	}

	for _, tx := range unfinished {
		e.logger.WithFields(log.Fields{
			"transaction": tx.Key,
			"skus":        tx.Draft.SKUs(),
		}).Info("resuming unfinished transaction")

		stats.RecordProcessed(tx.Draft.SKUs())
		stats.RecordRetry()
		if e.metrics != nil {
			e.metrics.RecordRetry()
		}
		if err := e.coordinator.Resume(ctx, tx, stats); err != nil {
			return fmt.Errorf("resume transaction %s: %w", tx.Key, err)
		}
		e.emitEvent(kafka.EventTypeDraftResumed, tx.Draft, map[string]interface{}{
			"transaction": tx.Key,
		})
	}

	if e.metrics != nil {
		e.metrics.SetPendingTransactions(0)
	}
	e.resumed = true
	return nil
}

// emitEvent публикует событие обработки драфта в outbox и, если настроен
// producer, напрямую в Kafka. Ошибки публикации логируются и не прерывают
// обработку: события опциональны.
func (e *Engine) emitEvent(eventType kafka.EventType, draft domain.ProductDraft, metadata map[string]interface{}) {
	if e.outbox != nil {
		event := kafka.NewReassignEvent(eventType, draft.Name(), draft.SKUs(), metadata)
		payload, err := json.Marshal(event)
		if err != nil {
			e.logger.WithError(err).WithField("event", eventType).Error("marshal event failed")
			return
		}
		msg := domain.OutboxMessage{
			AggregateType: "reassignment",
			AggregateID:   draft.Name(),
			EventType:     string(eventType),
			Payload:       payload,
		}
		if _, err := e.outbox.Enqueue(msg); err != nil {
			e.logger.WithError(err).WithField("event", eventType).Error("enqueue event failed")
		}
	}

	if e.kafkaProducer != nil {
		event := kafka.NewReassignEvent(eventType, draft.Name(), draft.SKUs(), metadata)
		if err := e.kafkaProducer.PublishEvent(kafka.TopicReassignEvents, draft.Name(), event); err != nil {
			e.logger.WithError(err).WithFields(log.Fields{
				"event_type": eventType,
				"draft":      draft.Name(),
			}).Warn("failed to publish reassign event to kafka")
		}
	}
}

// batchFetchArguments собирает объединённый список SKU и список slug для
// единственной батчевой выборки кандидатов по всем драфтам сразу.
func batchFetchArguments(drafts []domain.ProductDraft) ([]string, []domain.LocalizedString) {
	seen := make(map[string]struct{})
	var skus []string
	slugs := make([]domain.LocalizedString, 0, len(drafts))
	for _, draft := range drafts {
		for _, sku := range draft.SKUs() {
			if _, ok := seen[sku]; ok {
				continue
			}
			seen[sku] = struct{}{}
			skus = append(skus, sku)
		}
		if len(draft.Slug) > 0 {
			slugs = append(slugs, draft.Slug)
		}
	}
	return skus, slugs
}
