// Пакет session управляет состоянием браузерных сессий витрины: identity,
// корзина, избранное и сохранённый профиль восстанавливаются из долговременного
// хранилища при первом обращении и перезаписываются целиком на каждую мутацию.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/metrics"
	"github.com/vladislavdragonenkov/kiki/internal/service/cart"
	"github.com/vladislavdragonenkov/kiki/internal/service/checkout"
)

// Ключи записей в session store; по одному независимому документу на запись.
const (
	keyIdentity  = "kiki_user"
	keyFavorites = "kiki_favorites"
	keyProfile   = "kiki_profile"
	keyCart      = "kiki_cart"
)

// anonymousScope используется, пока в сессии нет авторизованного identity.
const anonymousScope = "anonymous"

// storedLine — сериализованная строка корзины; формат совместим с записью
// витрины (discountedPrice опционален).
type storedLine struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DiscountedPrice *int64 `json:"discountedPrice,omitempty"`
	Quantity        int32  `json:"quantity"`
	Image           string `json:"image"`
	Color           string `json:"color"`
}

// Manager владеет сессиями и их зависимостями.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store    domain.SessionStore
	provider domain.IdentityProvider
	gateway  domain.PaymentGateway
	outbox   domain.OutboxRepository
	metrics  *metrics.CheckoutMetrics
	backURLs domain.BackURLs
	logger   *log.Entry
}

// Config собирает зависимости менеджера сессий.
type Config struct {
	Store    domain.SessionStore
	Provider domain.IdentityProvider
	Gateway  domain.PaymentGateway
	Outbox   domain.OutboxRepository
	Metrics  *metrics.CheckoutMetrics
	BackURLs domain.BackURLs
	Logger   *log.Entry
}

// NewManager создаёт менеджер сессий.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "session-manager")
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    cfg.Store,
		provider: cfg.Provider,
		gateway:  cfg.Gateway,
		outbox:   cfg.Outbox,
		metrics:  cfg.Metrics,
		backURLs: cfg.BackURLs,
		logger:   logger,
	}
}

// Session клиентской сессии: identity (если есть), корзина, избранное и
// текущий checkout-флоу.
type Session struct {
	id string

	mu        sync.Mutex
	identity  *domain.Identity
	cart      *cart.Store
	favorites []string
	checkout  *checkout.Controller

	manager *Manager
}

// Session возвращает сессию по идентификатору, создавая и восстанавливая её
// из хранилища при первом обращении. Пустой id трактуется как анонимная сессия.
func (m *Manager) Session(id string) *Session {
	if id == "" {
		id = anonymousScope
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	s := &Session{id: id, manager: m}
	s.cart = cart.NewStore(
		cart.WithLogger(m.logger.WithField("session", id)),
		cart.WithPersistence(func(c domain.Cart) error {
			return s.persistCart(c)
		}),
	)
	s.restore()
	m.sessions[id] = s
	return s
}

// scope возвращает скоуп хранения: id пользователя после логина, иначе id сессии.
func (s *Session) scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scopeLocked()
}

// restore поднимает состояние сессии из долговременного хранилища.
// Любая повреждённая запись пропускается: durability — best effort.
func (s *Session) restore() {
	store := s.manager.store
	logger := s.manager.logger.WithField("session", s.id)

	if raw, err := store.Get(s.id, keyIdentity); err == nil {
		var identity domain.Identity
		if err := json.Unmarshal(raw, &identity); err == nil && identity.ID != "" {
			s.identity = &identity
		} else {
			logger.Warn("stored identity is corrupted, ignoring")
		}
	}

	scope := s.scope()
	if raw, err := store.Get(scope, keyCart); err == nil {
		var lines []storedLine
		if err := json.Unmarshal(raw, &lines); err == nil {
			s.cart.Restore(cartFromStored(lines))
		} else {
			logger.Warn("stored cart is corrupted, starting empty")
		}
	}
	if raw, err := store.Get(scope, keyFavorites); err == nil {
		var favorites []string
		if err := json.Unmarshal(raw, &favorites); err == nil {
			s.favorites = favorites
		}
	}
}

// Cart возвращает корзину сессии.
func (s *Session) Cart() *cart.Store {
	return s.cart
}

// Identity возвращает копию identity или nil для анонимной сессии.
func (s *Session) Identity() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

// Login обменивает access-токен на профиль у identity-провайдера и сохраняет
// его. Корзина анонимной сессии переезжает в скоуп пользователя.
func (s *Session) Login(ctx context.Context, accessToken string) (domain.Identity, error) {
	identity, err := s.manager.provider.Exchange(ctx, accessToken)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("exchange access token: %w", err)
	}

	s.mu.Lock()
	s.identity = &identity
	s.mu.Unlock()

	s.putJSON(s.id, keyIdentity, identity)
	// Персистим корзину уже в новом скоупе и поднимаем избранное пользователя.
	s.persistCart(s.cart.Snapshot())
	if raw, err := s.manager.store.Get(identity.ID, keyFavorites); err == nil {
		var favorites []string
		if err := json.Unmarshal(raw, &favorites); err == nil {
			s.mu.Lock()
			s.favorites = favorites
			s.mu.Unlock()
		}
	}

	return identity, nil
}

// Logout завершает авторизованную часть сессии: identity, избранное и профиль
// стираются из хранилища, как это делает выход в витрине. Корзина остаётся.
func (s *Session) Logout() {
	s.mu.Lock()
	identity := s.identity
	s.identity = nil
	s.favorites = nil
	if s.checkout != nil && s.manager.metrics != nil {
		s.manager.metrics.RecordCheckoutAbandoned()
	}
	s.checkout = nil
	s.mu.Unlock()

	store := s.manager.store
	_ = store.Delete(s.id, keyIdentity)
	if identity != nil {
		_ = store.Delete(identity.ID, keyFavorites)
		_ = store.Delete(identity.ID, keyProfile)
	}
}

// Favorites возвращает копию списка избранных товаров.
func (s *Session) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// ToggleFavorite добавляет или убирает товар из избранного. Для анонимной
// сессии вызов — охраняемый no-op, как в витрине.
func (s *Session) ToggleFavorite(productID string) []string {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return nil
	}

	found := -1
	for i, id := range s.favorites {
		if id == productID {
			found = i
			break
		}
	}
	if found >= 0 {
		s.favorites = append(s.favorites[:found], s.favorites[found+1:]...)
	} else {
		s.favorites = append(s.favorites, productID)
	}
	favorites := make([]string, len(s.favorites))
	copy(favorites, s.favorites)
	scope := s.identity.ID
	s.mu.Unlock()

	s.putJSON(scope, keyFavorites, favorites)
	return favorites
}

// SavedProfile возвращает сохранённый профиль покупателя или nil.
func (s *Session) SavedProfile() *domain.Profile {
	raw, err := s.manager.store.Get(s.scope(), keyProfile)
	if err != nil {
		return nil
	}
	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil
	}
	return &profile
}

// BeginCheckout создаёт checkout-флоу для сессии. Прежний незавершённый флоу
// заменяется новым; precondition-ы (логин, непустая корзина) проверяет
// конструктор контроллера.
func (s *Session) BeginCheckout() (*checkout.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.manager
	if s.checkout != nil && m.metrics != nil {
		m.metrics.RecordCheckoutAbandoned()
	}

	ctl, err := checkout.New(s.cart, s.identity, m.gateway,
		checkout.WithLogger(m.logger.WithField("session", s.id)),
		checkout.WithSavedProfile(s.savedProfileLocked()),
		checkout.WithProfileSink(func(p domain.Profile) error {
			return s.putJSON(s.scopeLocked(), keyProfile, p)
		}),
		checkout.WithBackURLs(m.backURLs),
		checkout.WithOutbox(m.outbox),
		checkout.WithMetrics(m.metrics),
	)
	if err != nil {
		return nil, err
	}
	s.checkout = ctl
	return ctl, nil
}

// Checkout возвращает текущий флоу или ErrCheckoutNotStarted.
func (s *Session) Checkout() (*checkout.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil {
		return nil, domain.ErrCheckoutNotStarted
	}
	return s.checkout, nil
}

// ConfirmCheckout подтверждает заказ; при успехе флоу завершается и
// сбрасывается, при сбое остаётся на review для повторной попытки.
func (s *Session) ConfirmCheckout(ctx context.Context) (string, error) {
	ctl, err := s.Checkout()
	if err != nil {
		return "", err
	}

	redirect, err := ctl.Confirm(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.checkout = nil
	s.mu.Unlock()
	return redirect, nil
}

// scopeLocked — scope() для вызовов под уже взятым s.mu.
func (s *Session) scopeLocked() string {
	if s.identity != nil {
		return s.identity.ID
	}
	return s.id
}

func (s *Session) savedProfileLocked() *domain.Profile {
	raw, err := s.manager.store.Get(s.scopeLocked(), keyProfile)
	if err != nil {
		return nil
	}
	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil
	}
	return &profile
}

// persistCart сохраняет корзину в текущем скоупе сессии.
func (s *Session) persistCart(c domain.Cart) error {
	lines := make([]storedLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, storedLine{
			ID:              l.ID,
			Name:            l.Name,
			Price:           l.UnitPrice,
			DiscountedPrice: l.DiscountedUnitPrice,
			Quantity:        l.Quantity,
			Image:           l.Image,
			Color:           l.Color,
		})
	}
	return s.putJSON(s.scope(), keyCart, lines)
}

func (s *Session) putJSON(scope, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.manager.store.Put(scope, key, raw)
}

func cartFromStored(lines []storedLine) domain.Cart {
	c := domain.Cart{Lines: make([]domain.CartLine, 0, len(lines))}
	for _, l := range lines {
		line := domain.CartLine{
			ID:        l.ID,
			Name:      l.Name,
			Image:     l.Image,
			Color:     l.Color,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
		}
		if l.DiscountedPrice != nil {
			price := *l.DiscountedPrice
			line.DiscountedUnitPrice = &price
		}
		c.Lines = append(c.Lines, line)
	}
	return c
}
