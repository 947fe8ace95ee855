package kafka

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndSucceed()

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-outbox-publisher-test"),
	}
	publisher := NewOutboxPublisher(producer, TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: "checkout",
		AggregateID:   "kiki-1700000000",
		EventType:     "checkout.confirmed",
		Payload:       []byte(`{"total":17000}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishEnvelope(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	// Проверяем envelope целиком: исходный payload должен остаться как есть.
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var envelope struct {
			ID          string          `json:"id"`
			AggregateID string          `json:"aggregate_id"`
			EventType   string          `json:"event_type"`
			Payload     json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(value, &envelope); err != nil {
			return err
		}
		if envelope.ID != "outbox-2" {
			t.Errorf("expected envelope id outbox-2, got %s", envelope.ID)
		}
		if envelope.AggregateID != "kiki-1700000001" {
			t.Errorf("expected aggregate id kiki-1700000001, got %s", envelope.AggregateID)
		}
		if envelope.EventType != "checkout.confirmed" {
			t.Errorf("expected event type checkout.confirmed, got %s", envelope.EventType)
		}
		if string(envelope.Payload) != `{"total":17000}` {
			t.Errorf("payload was altered: %s", envelope.Payload)
		}
		return nil
	})

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-outbox-publisher-test"),
	}
	publisher := NewOutboxPublisher(producer, TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: "checkout",
		AggregateID:   "kiki-1700000001",
		EventType:     "checkout.confirmed",
		Payload:       []byte(`{"total":17000}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-outbox-publisher-test"),
	}
	publisher := NewOutboxPublisher(producer, TopicOrderEvents)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-3",
		AggregateType: "checkout",
		AggregateID:   "kiki-1700000002",
		EventType:     "checkout.failed",
		Payload:       []byte(`{"reason":"gateway"}`),
	})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-4"}); err == nil {
		t.Fatal("expected error for nil producer")
	}
}

func TestNewOutboxPublisher_DefaultTopic(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(&Producer{}, "")
	tp, ok := publisher.(*OutboxTopicPublisher)
	if !ok {
		t.Fatalf("unexpected publisher type %T", publisher)
	}
	if tp.topic != TopicOrderEvents {
		t.Errorf("expected default topic %s, got %s", TopicOrderEvents, tp.topic)
	}
}
