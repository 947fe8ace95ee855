// Package api реализует REST-слой витрины: каталог, корзину, авторизацию,
// избранное, checkout-флоу и создание платёжной преференции.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/health"
	"github.com/vladislavdragonenkov/kiki/internal/metrics"
	"github.com/vladislavdragonenkov/kiki/internal/service/session"
)

// Server собирает маршруты витрины поверх chi-роутера.
type Server struct {
	router      chi.Router
	sessions    *session.Manager
	products    domain.ProductRepository
	collections domain.CollectionRepository
	gateway     domain.PaymentGateway
	metrics     *metrics.CheckoutMetrics
	backURLs    domain.BackURLs
	logger      *log.Entry
}

// Config собирает зависимости REST-слоя.
type Config struct {
	Sessions    *session.Manager
	Products    domain.ProductRepository
	Collections domain.CollectionRepository
	Gateway     domain.PaymentGateway
	Metrics     *metrics.CheckoutMetrics
	BackURLs    domain.BackURLs
	Health      *health.Handler
	// AllowedOrigins ограничивает CORS; пустой список означает "*".
	AllowedOrigins []string
	Logger         *log.Entry
}

// NewServer создаёт REST-сервер и регистрирует все маршруты.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "api")
	}

	s := &Server{
		router:      chi.NewRouter(),
		sessions:    cfg.Sessions,
		products:    cfg.Products,
		collections: cfg.Collections,
		gateway:     cfg.Gateway,
		metrics:     cfg.Metrics,
		backURLs:    cfg.BackURLs,
		logger:      logger,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerSessionID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.routes(cfg.Health)
	return s
}

func (s *Server) routes(healthHandler *health.Handler) {
	s.router.Get("/", s.handleBanner)

	s.router.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Get("/{id}", s.handleGetProduct)
	})
	s.router.Route("/collections", func(r chi.Router) {
		r.Get("/", s.handleListCollections)
		r.Get("/{id}", s.handleGetCollection)
	})

	s.router.Post("/create_preference", s.handleCreatePreference)

	s.router.Route("/cart", func(r chi.Router) {
		r.Get("/", s.handleGetCart)
		r.Delete("/", s.handleClearCart)
		r.Post("/items", s.handleAddCartItem)
		r.Put("/items/{id}", s.handleSetCartQuantity)
		r.Delete("/items/{id}", s.handleRemoveCartItem)
		r.Post("/collections/{id}", s.handleAddCollection)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)
	})

	s.router.Route("/favorites", func(r chi.Router) {
		r.Get("/", s.handleListFavorites)
		r.Post("/{id}", s.handleToggleFavorite)
	})

	s.router.Route("/checkout", func(r chi.Router) {
		r.Post("/", s.handleBeginCheckout)
		r.Get("/", s.handleCheckoutState)
		r.Put("/form", s.handleCheckoutSetField)
		r.Post("/next", s.handleCheckoutNext)
		r.Post("/back", s.handleCheckoutBack)
		r.Post("/confirm", s.handleCheckoutConfirm)
	})

	if healthHandler != nil {
		s.router.Method(http.MethodGet, "/healthz", healthHandler)
		s.router.Get("/readyz", healthHandler.ReadinessHandler)
		s.router.Get("/livez", health.LivenessHandler)
	}
}

// Router возвращает http.Handler для монтирования в HTTP-сервер.
func (s *Server) Router() http.Handler {
	return s.router
}
