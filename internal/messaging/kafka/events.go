package kafka

import "time"

// EventType определяет тип события витрины.
type EventType string

const (
	// Checkout события
	EventTypeCheckoutStarted   EventType = "checkout.started"
	EventTypeCheckoutConfirmed EventType = "checkout.confirmed"
	EventTypeCheckoutFailed    EventType = "checkout.failed"

	// Платёжные события
	EventTypePreferenceCreated EventType = "preference.created"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "kiki.order.events"
	TopicDeadLetterQueue = "kiki.dlq" // Dead Letter Queue для failed messages
)

// OrderEvent представляет событие заказа, публикуемое наружу.
type OrderEvent struct {
	EventType EventType `json:"event_type"`
	// ExternalReference — ссылка kiki-<ts>, связывающая платёж с заказом.
	ExternalReference string                 `json:"external_reference"`
	CustomerID        string                 `json:"customer_id,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создаёт событие заказа с текущим временем.
func NewOrderEvent(eventType EventType, externalReference, customerID string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:         eventType,
		ExternalReference: externalReference,
		CustomerID:        customerID,
		Timestamp:         time.Now(),
		Metadata:          metadata,
	}
}
