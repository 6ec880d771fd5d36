package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/reassign/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	// События обработки драфтов
	EventTypeDraftStarted   EventType = "draft.started"
	EventTypeDraftCompleted EventType = "draft.completed"
	EventTypeDraftFailed    EventType = "draft.failed"
	EventTypeDraftResumed   EventType = "draft.resumed"

	// События мутаций каталога
	EventTypeProductAnonymized  EventType = "product.anonymized"
	EventTypeProductTypeChanged EventType = "product.type_changed"
)

// Topics для Kafka
const (
	TopicReassignEvents   = "reassign.events"
	TopicReassignRequests = "reassign.requests"
	TopicDeadLetterQueue  = "reassign.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// ReassignEvent представляет событие обработки одного драфта
type ReassignEvent struct {
	EventType EventType              `json:"event_type"`
	DraftName string                 `json:"draft_name"`
	SKUs      []string               `json:"skus,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewReassignEvent создает новое событие обработки драфта
func NewReassignEvent(eventType EventType, draftName string, skus []string, metadata map[string]interface{}) *ReassignEvent {
	return &ReassignEvent{
		EventType: eventType,
		DraftName: draftName,
		SKUs:      skus,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// ReassignRequest представляет входящий запрос на обработку пачки драфтов
type ReassignRequest struct {
	RequestID string                `json:"request_id"`
	Drafts    []domain.ProductDraft `json:"drafts"`
	Timestamp time.Time             `json:"timestamp"`
}
