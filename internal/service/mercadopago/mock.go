package mercadopago

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

// MockGateway — конфигурируемая заглушка PaymentGateway для тестов и
// локальной разработки без аккаунта шлюза.
type MockGateway struct {
	mu sync.Mutex

	Preference domain.Preference
	Err        error

	Calls    int
	LastReq  domain.PreferenceRequest
	Requests []domain.PreferenceRequest
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Preference: domain.Preference{
			ID:               "pref-mock",
			InitPoint:        "https://gateway.example/init/pref-mock",
			SandboxInitPoint: "https://gateway.example/sandbox/pref-mock",
		},
	}
}

// CreatePreference возвращает заранее настроенный результат и считает вызовы.
func (m *MockGateway) CreatePreference(_ context.Context, req domain.PreferenceRequest) (domain.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastReq = req
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return domain.Preference{}, m.Err
	}
	return m.Preference, nil
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
