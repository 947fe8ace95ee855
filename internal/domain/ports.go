package domain

import (
	"context"
	"time"
)

// PaymentGateway описывает взаимодействие с внешним платёжным шлюзом.
type PaymentGateway interface {
	// CreatePreference создаёт платёжную преференцию и возвращает URL-ы редиректа.
	CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error)
}

// IdentityProvider описывает обмен OAuth access-токена на проверенный профиль.
type IdentityProvider interface {
	Exchange(ctx context.Context, accessToken string) (Identity, error)
}

// SessionStore — долговременное key-value хранилище, скоупленное по сессии:
// scope = id пользователя либо "anonymous". Записи перезаписываются целиком.
type SessionStore interface {
	// Get возвращает запись или ErrSessionRecordNotFound.
	Get(scope, key string) ([]byte, error)
	Put(scope, key string, value []byte) error
	Delete(scope, key string) error
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
