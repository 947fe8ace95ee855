package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

type sessionStore struct {
	db *sql.DB
}

// NewSessionStore создаёт PostgreSQL-реализацию SessionStore.
// Значения всегда являются валидным JSON, поэтому колонка value — jsonb.
func NewSessionStore(store *Store) domain.SessionStore {
	return &sessionStore{db: store.DB()}
}

func (s *sessionStore) Get(scope, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value
		FROM session_state
		WHERE scope = $1 AND key = $2
	`, scope, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionRecordNotFound
		}
		return nil, fmt.Errorf("select session record: %w", err)
	}

	return value, nil
}

func (s *sessionStore) Put(scope, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO session_state (scope, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, scope, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}

	return nil
}

func (s *sessionStore) Delete(scope, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM session_state
		WHERE scope = $1 AND key = $2
	`, scope, key); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}

	return nil
}

var _ domain.SessionStore = (*sessionStore)(nil)
