// Пакет cart реализует движок корзины: слияние строк при добавлении,
// пересчёт скидочных цен и производные суммы. Внешний мир подключается
// через подписчиков и best-effort персистентность.
package cart

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/pricing"
)

// justAddedWindow — длительность транзитного пульса «только что добавлено».
const justAddedWindow = 600 * time.Millisecond

// Item описывает товар, добавляемый в корзину (количество всегда 1 за вызов).
type Item struct {
	ID        string
	Name      string
	UnitPrice int64
	Image     string
	Color     string
}

// Option настраивает Store.
type Option func(*Store)

// WithLogger задаёт logger для событий персистентности.
func WithLogger(logger *log.Entry) Option {
	return func(s *Store) { s.logger = logger }
}

// WithPersistence задаёт функцию сохранения корзины после каждой мутации.
// Ошибки сохранения не фатальны: теряется только durability, не корректность.
func WithPersistence(persist func(domain.Cart) error) Option {
	return func(s *Store) { s.persist = persist }
}

// WithClock подменяет источник времени (для тестов пульса).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store владеет изменяемым состоянием корзины одной сессии. Мутации и чтения
// синхронизированы: одну и ту же сессию могут дёргать параллельные HTTP-запросы.
// Персистентность и подписчики вызываются уже после снятия блокировки, со
// снапшотом состояния на момент мутации.
type Store struct {
	mu          sync.RWMutex
	cart        domain.Cart
	lastAddedAt time.Time

	now         func() time.Time
	persist     func(domain.Cart) error
	subscribers []func()
	logger      *log.Entry
}

// NewStore создаёт пустую корзину.
func NewStore(options ...Option) *Store {
	s := &Store{
		now: time.Now,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "cart-store")
	}
	return s
}

// Restore загружает ранее сохранённое состояние (при старте сессии).
// Строки, нарушающие инварианты, отбрасываются целиком: повреждённое
// хранилище не должно ронять сессию.
func (s *Store) Restore(cart domain.Cart) {
	if errs := cart.ValidateInvariants(); len(errs) > 0 {
		s.logger.WithField("violations", len(errs)).Warn("stored cart violates invariants, starting empty")
		return
	}
	s.mu.Lock()
	s.cart = cart.Clone()
	s.mu.Unlock()
}

// Subscribe регистрирует колбэк, вызываемый после каждой мутации корзины.
// Колбэк не должен обращаться к Store: он исполняется вне блокировки, но
// порядок уведомлений при параллельных мутациях не определён.
func (s *Store) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// AddOne добавляет одну единицу товара.
//
// Политика слияния: новая строка получает quantity=1 без скидки; существующая
// строка без скидки просто увеличивает количество; существующая строка со
// скидкой пересчитывает скидочную цену как средневзвешенную между прежней
// скидочной суммой и входящей полной ценой.
func (s *Store) AddOne(item Item) {
	s.mu.Lock()
	idx := s.cart.Find(item.ID)
	switch {
	case idx < 0:
		s.cart.Lines = append(s.cart.Lines, domain.CartLine{
			ID:        item.ID,
			Name:      item.Name,
			Image:     item.Image,
			Color:     item.Color,
			UnitPrice: item.UnitPrice,
			Quantity:  1,
		})
	case s.cart.Lines[idx].DiscountedUnitPrice == nil:
		s.cart.Lines[idx].Quantity++
	default:
		line := &s.cart.Lines[idx]
		blended := pricing.WeightedAverage(*line.DiscountedUnitPrice, line.Quantity, item.UnitPrice)
		line.DiscountedUnitPrice = &blended
		line.Quantity++
	}
	s.lastAddedAt = s.now()
	snapshot, subs := s.commitLocked()
	s.mu.Unlock()

	s.notify(snapshot, subs)
}

// AddMany добавляет по одной единице каждого товара со скидкой коллекции.
//
// В отличие от AddOne, повторное добавление уже имеющейся строки не усредняет
// цену, а перезаписывает её свежепосчитанной скидочной: покупка коллекции
// всегда переоценивает строку по текущей скидке. Пульс срабатывает один раз
// на весь вызов.
func (s *Store) AddMany(items []Item, discountFraction float64) {
	s.mu.Lock()
	for _, item := range items {
		discounted := pricing.Discounted(item.UnitPrice, discountFraction)
		if idx := s.cart.Find(item.ID); idx >= 0 {
			s.cart.Lines[idx].Quantity++
			s.cart.Lines[idx].DiscountedUnitPrice = &discounted
			continue
		}
		s.cart.Lines = append(s.cart.Lines, domain.CartLine{
			ID:                  item.ID,
			Name:                item.Name,
			Image:               item.Image,
			Color:               item.Color,
			UnitPrice:           item.UnitPrice,
			DiscountedUnitPrice: &discounted,
			Quantity:            1,
		})
	}
	s.lastAddedAt = s.now()
	snapshot, subs := s.commitLocked()
	s.mu.Unlock()

	s.notify(snapshot, subs)
}

// Remove удаляет строку по ID; отсутствие строки — не ошибка и не мутация.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	idx := s.cart.Find(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.cart.Lines = append(s.cart.Lines[:idx], s.cart.Lines[idx+1:]...)
	snapshot, subs := s.commitLocked()
	s.mu.Unlock()

	s.notify(snapshot, subs)
}

// SetQuantity перезаписывает количество строки. Значения меньше 1 молча
// отклоняются: это защита от случайного обнуления, а не ошибка.
func (s *Store) SetQuantity(id string, quantity int32) {
	if quantity < 1 {
		return
	}
	s.mu.Lock()
	idx := s.cart.Find(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.cart.Lines[idx].Quantity = quantity
	snapshot, subs := s.commitLocked()
	s.mu.Unlock()

	s.notify(snapshot, subs)
}

// Clear опустошает корзину (после успешной передачи заказа шлюзу).
func (s *Store) Clear() {
	s.mu.Lock()
	if s.cart.IsEmpty() {
		s.mu.Unlock()
		return
	}
	s.cart.Lines = nil
	snapshot, subs := s.commitLocked()
	s.mu.Unlock()

	s.notify(snapshot, subs)
}

// Snapshot возвращает глубокую копию текущего состояния.
func (s *Store) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Lines возвращает копию строк корзины в порядке первого добавления.
func (s *Store) Lines() []domain.CartLine {
	return s.Snapshot().Lines
}

// TotalItems пересчитывает суммарное количество на каждое чтение.
func (s *Store) TotalItems() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalItems()
}

// Subtotal пересчитывает сумму корзины на каждое чтение.
func (s *Store) Subtotal() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Subtotal()
}

// IsEmpty сообщает, пуста ли корзина.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.IsEmpty()
}

// JustAdded сообщает, активен ли пульс «только что добавлено».
// Пульс гаснет сам через 600 мс и не влияет на ценообразование.
func (s *Store) JustAdded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastAddedAt.IsZero() {
		return false
	}
	return s.now().Sub(s.lastAddedAt) < justAddedWindow
}

// commitLocked снимает снапшот состояния и подписчиков под уже взятым s.mu.
func (s *Store) commitLocked() (domain.Cart, []func()) {
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	return s.cart.Clone(), subs
}

// notify сохраняет снапшот и уведомляет подписчиков вне блокировки.
func (s *Store) notify(snapshot domain.Cart, subs []func()) {
	if s.persist != nil {
		if err := s.persist(snapshot); err != nil {
			s.logger.WithError(err).Warn("failed to persist cart, continuing in-memory")
		}
	}
	for _, fn := range subs {
		fn()
	}
}
