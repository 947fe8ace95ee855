package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/api"
	"github.com/vladislavdragonenkov/kiki/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/kiki/internal/health"
	"github.com/vladislavdragonenkov/kiki/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/kiki/internal/metrics"
	"github.com/vladislavdragonenkov/kiki/internal/service/googleauth"
	"github.com/vladislavdragonenkov/kiki/internal/service/mercadopago"
	"github.com/vladislavdragonenkov/kiki/internal/service/outbox"
	"github.com/vladislavdragonenkov/kiki/internal/service/session"
	"github.com/vladislavdragonenkov/kiki/internal/version"
)

// Run собирает все компоненты витрины и блокируется до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	if cfg.SeedCatalog {
		if err := seedCatalog(storage.Products, storage.Collections, logger); err != nil {
			return err
		}
	}

	gateway := initGateway(cfg, logger)
	provider := initIdentityProvider(cfg, logger)

	// Kafka опционален: без брокеров outbox копится в хранилище,
	// публикатор можно поднять позже без потери событий.
	var kafkaProducer *kafka.Producer
	var outboxWorker *outbox.Worker
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")

			outboxWorker = outbox.NewWorker(
				storage.Outbox,
				kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents),
				outbox.WithLogger(logger.WithField("component", "outbox-worker")),
				outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)),
				outbox.WithPollInterval(cfg.OutboxPollInterval),
				outbox.WithBatchSize(cfg.OutboxBatchSize),
				outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			)
		}
	}

	checkoutMetrics := metrics.NewCheckoutMetrics()

	sessions := session.NewManager(session.Config{
		Store:    storage.SessionStore,
		Provider: provider,
		Gateway:  gateway,
		Outbox:   storage.Outbox,
		Metrics:  checkoutMetrics,
		BackURLs: backURLsFor(cfg.FrontendURL),
		Logger:   logger.WithField("component", "session-manager"),
	})

	v, _, _ := version.Info()
	healthHandler := healthcheck.NewHandler(v)
	healthHandler.RegisterChecker("storage", healthcheck.NewCheckerFunc("storage", storage.Ping))

	server := api.NewServer(api.Config{
		Sessions:       sessions,
		Products:       storage.Products,
		Collections:    storage.Collections,
		Gateway:        gateway,
		Metrics:        checkoutMetrics,
		BackURLs:       backURLsFor(cfg.FrontendURL),
		Health:         healthHandler,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger.WithField("component", "api"),
	})

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	if outboxWorker != nil {
		go outboxWorker.Run(ctx)
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	closeKafka := func() {
		if kafkaProducer == nil {
			return
		}
		if err := kafkaProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(httpSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeKafka()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeKafka()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// initGateway возвращает реальный клиент MercadoPago при наличии access-токена,
// иначе мок для локальной разработки.
func initGateway(cfg Config, logger *log.Entry) domain.PaymentGateway {
	if cfg.MercadoPagoAccessToken == "" {
		logger.Warn("MercadoPago access token is not set, using mock gateway")
		return mercadopago.NewMockGateway()
	}

	options := []mercadopago.ClientOption{
		mercadopago.WithLogger(logger.WithField("component", "mercadopago")),
	}
	if cfg.MercadoPagoBaseURL != "" {
		options = append(options, mercadopago.WithBaseURL(cfg.MercadoPagoBaseURL))
	}
	return mercadopago.NewClient(cfg.MercadoPagoAccessToken, options...)
}

func initIdentityProvider(cfg Config, logger *log.Entry) domain.IdentityProvider {
	options := []googleauth.ClientOption{
		googleauth.WithLogger(logger.WithField("component", "googleauth")),
	}
	if cfg.GoogleUserinfoURL != "" {
		options = append(options, googleauth.WithUserinfoURL(cfg.GoogleUserinfoURL))
	}
	return googleauth.NewClient(options...)
}

// backURLsFor строит адреса возврата после оплаты на базе адреса витрины.
func backURLsFor(frontendURL string) domain.BackURLs {
	return domain.BackURLs{
		Success: frontendURL + "/pago/success",
		Failure: frontendURL + "/pago/failure",
		Pending: frontendURL + "/pago/pending",
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
