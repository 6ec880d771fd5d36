package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishEvent(t *testing.T) {
	// Создаем mock producer
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидания
	mockProducer.ExpectSendMessageAndSucceed()

	// Создаем тестовое событие
	event := NewReassignEvent(
		EventTypeDraftCompleted,
		"sample-draft",
		[]string{"sku-1", "sku-2"},
		map[string]interface{}{
			"anonymized": 1,
		},
	)

	// Публикуем событие
	err := producer.PublishEvent(TopicReassignEvents, "sample-draft", event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Проверяем, что все ожидания выполнены
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	// Создаем mock producer с ошибкой
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидание ошибки
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewReassignEvent(
		EventTypeDraftFailed,
		"sample-draft",
		nil,
		nil,
	)

	// Публикуем событие
	err := producer.PublishEvent(TopicReassignEvents, "sample-draft", event)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewReassignEvent(t *testing.T) {
	draftName := "winter-jacket"
	skus := []string{"sku-a", "sku-b"}
	metadata := map[string]interface{}{
		"type_changed": true,
	}

	event := NewReassignEvent(EventTypeDraftCompleted, draftName, skus, metadata)

	if event.EventType != EventTypeDraftCompleted {
		t.Errorf("expected event type %s, got %s", EventTypeDraftCompleted, event.EventType)
	}

	if event.DraftName != draftName {
		t.Errorf("expected draft name %s, got %s", draftName, event.DraftName)
	}

	if len(event.SKUs) != 2 {
		t.Errorf("expected 2 skus, got %d", len(event.SKUs))
	}

	if event.Metadata["type_changed"] != true {
		t.Error("metadata not set correctly")
	}

	// Проверяем, что timestamp установлен
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}

	// Проверяем, что timestamp близок к текущему времени
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}
