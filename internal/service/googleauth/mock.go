package googleauth

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

// MockProvider — конфигурируемая заглушка IdentityProvider для тестов.
type MockProvider struct {
	mu sync.Mutex

	Identity domain.Identity
	Err      error

	Calls     int
	LastToken string
}

// NewMockProvider возвращает mock с фиксированным профилем по умолчанию.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Identity: domain.Identity{
			ID:      "user-mock",
			Name:    "Valentina García",
			Email:   "valentina@example.com",
			Picture: "https://example.com/avatar.png",
		},
	}
}

// Exchange возвращает заранее настроенный результат и считает вызовы.
func (m *MockProvider) Exchange(_ context.Context, accessToken string) (domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastToken = accessToken
	if m.Err != nil {
		return domain.Identity{}, m.Err
	}
	return m.Identity, nil
}

var _ domain.IdentityProvider = (*MockProvider)(nil)
