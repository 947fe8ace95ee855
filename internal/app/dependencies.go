package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/storage/memory"
	"github.com/vladislavdragonenkov/kiki/internal/storage/postgres"
)

// Storage объединяет репозитории, зависящие от выбранного драйвера.
type Storage struct {
	Products     domain.ProductRepository
	Collections  domain.CollectionRepository
	SessionStore domain.SessionStore
	Outbox       domain.OutboxRepository

	// store заполняется только для postgres-драйвера.
	store *postgres.Store
}

// Close освобождает ресурсы хранилища.
func (s *Storage) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Ping проверяет доступность хранилища; для memory-драйвера всегда успешен.
func (s *Storage) Ping() error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.store.Ping(ctx)
}

// initStorage создаёт репозитории согласно выбранному драйверу.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*Storage, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Info("using in-memory storage")
		return &Storage{
			Products:     memory.NewProductRepository(),
			Collections:  memory.NewCollectionRepository(),
			SessionStore: memory.NewSessionStore(),
			Outbox:       memory.NewOutboxRepository(),
		}, nil

	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.AutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("migrations applied")
		}
		logger.Info("using postgres storage")
		return &Storage{
			Products:     postgres.NewProductRepository(store),
			Collections:  postgres.NewCollectionRepository(store),
			SessionStore: postgres.NewSessionStore(store),
			Outbox:       postgres.NewOutboxRepository(store),
			store:        store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
	}
}
