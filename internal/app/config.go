package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения. Все значения можно
// переопределить переменными окружения с префиксом KIKI_, например
// KIKI_HTTP_ADDR или KIKI_STORAGE_DRIVER.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver string
	PostgresDSN   string
	AutoMigrate   bool

	KafkaBrokers []string

	MercadoPagoAccessToken string
	MercadoPagoBaseURL     string
	GoogleUserinfoURL      string

	// FrontendURL — база для back_urls платёжной преференции.
	FrontendURL    string
	AllowedOrigins []string

	SeedCatalog bool

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		StorageDriver:      StorageDriverMemory,
		AutoMigrate:        false,
		FrontendURL:        "http://localhost:5173",
		SeedCatalog:        true,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    50,
		OutboxMaxAttempts:  3,
	}
}

// ReadConfig собирает конфигурацию из окружения поверх значений по умолчанию.
func ReadConfig() (Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("KIKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", defaults.HTTPAddr)
	v.SetDefault("metrics_addr", defaults.MetricsAddr)
	v.SetDefault("storage_driver", defaults.StorageDriver)
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("auto_migrate", defaults.AutoMigrate)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("mp_access_token", "")
	v.SetDefault("mp_base_url", "")
	v.SetDefault("google_userinfo_url", "")
	v.SetDefault("frontend_url", defaults.FrontendURL)
	v.SetDefault("allowed_origins", "")
	v.SetDefault("seed_catalog", defaults.SeedCatalog)
	v.SetDefault("outbox_poll_interval", defaults.OutboxPollInterval)
	v.SetDefault("outbox_batch_size", defaults.OutboxBatchSize)
	v.SetDefault("outbox_max_attempts", defaults.OutboxMaxAttempts)

	cfg := Config{
		HTTPAddr:               v.GetString("http_addr"),
		MetricsAddr:            v.GetString("metrics_addr"),
		StorageDriver:          strings.ToLower(strings.TrimSpace(v.GetString("storage_driver"))),
		PostgresDSN:            v.GetString("postgres_dsn"),
		AutoMigrate:            v.GetBool("auto_migrate"),
		KafkaBrokers:           splitList(v.GetString("kafka_brokers")),
		MercadoPagoAccessToken: v.GetString("mp_access_token"),
		MercadoPagoBaseURL:     v.GetString("mp_base_url"),
		GoogleUserinfoURL:      v.GetString("google_userinfo_url"),
		FrontendURL:            strings.TrimRight(v.GetString("frontend_url"), "/"),
		AllowedOrigins:         splitList(v.GetString("allowed_origins")),
		SeedCatalog:            v.GetBool("seed_catalog"),
		OutboxPollInterval:     v.GetDuration("outbox_poll_interval"),
		OutboxBatchSize:        v.GetInt("outbox_batch_size"),
		OutboxMaxAttempts:      v.GetInt("outbox_max_attempts"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage requires KIKI_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %q (use %s|%s)",
			c.StorageDriver, StorageDriverMemory, StorageDriverPostgres)
	}

	if c.HTTPAddr == "" {
		return fmt.Errorf("http address must not be empty")
	}
	if c.FrontendURL == "" {
		return fmt.Errorf("frontend url must not be empty")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive")
	}
	if c.OutboxMaxAttempts <= 0 {
		return fmt.Errorf("outbox max attempts must be positive")
	}

	return nil
}

func splitList(raw string) []string {
	var result []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
