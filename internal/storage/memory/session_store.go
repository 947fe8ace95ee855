package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

// sessionStoreInMemory — скоупленное key-value хранилище состояния сессий.
// Записи перезаписываются целиком на каждую мутацию, как localStorage витрины.
type sessionStoreInMemory struct {
	mu sync.RWMutex
	// data: scope -> key -> сериализованная запись.
	data map[string]map[string][]byte
}

// NewSessionStore возвращает in-memory session store.
func NewSessionStore() domain.SessionStore {
	return &sessionStoreInMemory{
		data: make(map[string]map[string][]byte),
	}
}

// Get возвращает копию записи или ErrSessionRecordNotFound.
func (s *sessionStoreInMemory) Get(scope, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[scope][key]
	if !ok {
		return nil, domain.ErrSessionRecordNotFound
	}
	out := make([]byte, len(record))
	copy(out, record)
	return out, nil
}

// Put перезаписывает запись целиком.
func (s *sessionStoreInMemory) Put(scope, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[scope] == nil {
		s.data[scope] = make(map[string][]byte)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[scope][key] = stored
	return nil
}

// Delete удаляет запись; отсутствие записи — не ошибка.
func (s *sessionStoreInMemory) Delete(scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[scope], key)
	return nil
}

var _ domain.SessionStore = (*sessionStoreInMemory)(nil)
