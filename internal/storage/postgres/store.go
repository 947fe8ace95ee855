// Пакет postgres хранит каталог, сессии витрины и transactional outbox
// в PostgreSQL через database/sql поверх драйвера pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// opTimeout ограничивает отдельные запросы репозиториев.
const opTimeout = 5 * time.Second

// pool задаёт настройки пула подключений. Витрина обслуживает один
// фронтенд, поэтому значения консервативные.
var pool = struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
	pingTimeout time.Duration
}{
	maxOpen:     25,
	maxIdle:     25,
	maxLifetime: 30 * time.Minute,
	maxIdleTime: 5 * time.Minute,
	pingTimeout: 5 * time.Second,
}

// Store владеет SQL-подключением; репозитории и мигратор строятся поверх него.
type Store struct {
	db *sql.DB
}

// Open подключается к PostgreSQL по DSN и сразу проверяет базу ping-ом:
// витрина не должна стартовать с мёртвым хранилищем.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(pool.maxOpen)
	db.SetMaxIdleConns(pool.maxIdle)
	db.SetConnMaxLifetime(pool.maxLifetime)
	db.SetConnMaxIdleTime(pool.maxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pool.pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB отдаёт raw *sql.DB для кода, которому нужен прямой доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет живость подключения; безопасен на nil-store.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pool.pingTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение; безопасен на nil-store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
