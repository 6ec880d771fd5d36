package app

import (
	"context"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
	"github.com/vladislavdragonenkov/reassign/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/reassign/internal/service/reassign"
)

// reassignEngine — то, что нужно приложению от движка переназначения.
type reassignEngine interface {
	Execute(ctx context.Context, drafts []domain.ProductDraft, productTypeTable map[string]string) (domain.Statistics, error)
}

// createEngine создаёт движок с публикацией событий в outbox и,
// при наличии producer, напрямую в Kafka.
func createEngine(deps *Dependencies, kafkaProducer *kafka.Producer, retainAttributes []string) reassignEngine {
	return reassign.NewEngineWithOutbox(
		deps.Catalog,
		deps.Journal,
		deps.OutboxRepo,
		kafkaProducer,
		retainAttributes,
		deps.Logger,
	)
}
