// Пакет checkout реализует трёхшаговый state machine оформления заказа:
// identity → shipping → review. Переходы вперёд охраняются валидацией шага,
// назад — безусловны; из review выход происходит передачей заказа шлюзу.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/kiki/internal/metrics"
	"github.com/vladislavdragonenkov/kiki/internal/pricing"
	"github.com/vladislavdragonenkov/kiki/internal/service/cart"
)

// shippingLineID — ID синтетической позиции доставки в преференции.
const shippingLineID = "envio"

// confirmFailedMessage — единственное пользовательское сообщение при сбое шлюза.
const confirmFailedMessage = "No se pudo conectar con el servidor de pagos. Intentá de nuevo."

// Quote — расчёт стоимости, потребляемый шагами shipping и review.
type Quote struct {
	Subtotal     int64 `json:"subtotal"`
	FreeShipping bool  `json:"freeShipping"`
	ShippingCost int64 `json:"shippingCost"`
	Total        int64 `json:"total"`
}

// Option настраивает Controller.
type Option func(*Controller)

// WithLogger задаёт logger контроллера.
func WithLogger(logger *log.Entry) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithSavedProfile префиллит форму из сохранённого профиля покупателя.
func WithSavedProfile(profile *domain.Profile) Option {
	return func(c *Controller) { c.savedProfile = profile }
}

// WithProfileSink задаёт функцию сохранения профиля после успешного подтверждения.
func WithProfileSink(save func(domain.Profile) error) Option {
	return func(c *Controller) { c.saveProfile = save }
}

// WithBackURLs задаёт адреса возврата покупателя после оплаты.
func WithBackURLs(urls domain.BackURLs) Option {
	return func(c *Controller) { c.backURLs = urls }
}

// WithOutbox включает публикацию событий жизненного цикла заказа.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(c *Controller) { c.outbox = outbox }
}

// WithMetrics подключает prometheus-метрики checkout.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithClock подменяет источник времени (для тестов external_reference).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller ведёт состояние одного оформления заказа. Операции
// сериализуются мьютексом: один и тот же флоу могут дёргать параллельные
// HTTP-запросы сессии.
type Controller struct {
	mu          sync.Mutex
	step        domain.CheckoutStep
	form        domain.CheckoutForm
	fieldErrors map[string]string
	// confirmMessage — пользовательское сообщение о сбое последнего Confirm.
	confirmMessage string

	cart     *cart.Store
	identity domain.Identity
	gateway  domain.PaymentGateway

	savedProfile *domain.Profile
	saveProfile  func(domain.Profile) error
	backURLs     domain.BackURLs
	outbox       domain.OutboxRepository
	metrics      *metrics.CheckoutMetrics
	logger       *log.Entry
	now          func() time.Time
}

// New создаёт контроллер для авторизованного покупателя с непустой корзиной.
// Оба precondition-а — блокирующие проверки до начала флоу, а не шаги.
func New(cartStore *cart.Store, identity *domain.Identity, gateway domain.PaymentGateway, options ...Option) (*Controller, error) {
	if identity == nil {
		return nil, domain.ErrLoginRequired
	}
	if cartStore == nil || cartStore.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}

	c := &Controller{
		step:        domain.StepIdentity,
		fieldErrors: make(map[string]string),
		cart:        cartStore,
		identity:    *identity,
		gateway:     gateway,
		now:         time.Now,
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = log.WithField("component", "checkout")
	}

	c.form = initialForm(c.identity, c.savedProfile)
	if c.metrics != nil {
		c.metrics.RecordCheckoutStarted()
	}
	c.enqueueEvent(kafka.EventTypeCheckoutStarted, c.identity.ID, map[string]any{
		"customer_id": c.identity.ID,
		"items":       cartStore.TotalItems(),
		"subtotal":    cartStore.Subtotal(),
	})
	return c, nil
}

// initialForm строит стартовую форму: сохранённый профиль поверх данных
// identity-провайдера; перевозчик и вид доставки получают значения по умолчанию.
func initialForm(identity domain.Identity, profile *domain.Profile) domain.CheckoutForm {
	first, last := identity.SplitName()
	form := domain.CheckoutForm{
		FirstName:    first,
		LastName:     last,
		Carrier:      domain.CarrierCorreoArgentino,
		DeliveryType: domain.DeliveryHome,
	}
	if profile == nil {
		return form
	}

	if profile.FirstName != "" {
		form.FirstName = profile.FirstName
	}
	if profile.LastName != "" {
		form.LastName = profile.LastName
	}
	form.DNI = profile.DNI
	form.Phone = profile.Phone
	form.Province = profile.Province
	form.City = profile.City
	form.Address = profile.Address
	form.PostalCode = profile.PostalCode
	return form
}

// Step возвращает текущий шаг.
func (c *Controller) Step() domain.CheckoutStep {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Form возвращает копию текущей формы.
func (c *Controller) Form() domain.CheckoutForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// FieldErrors возвращает копию карты ошибок последней неуспешной валидации.
func (c *Controller) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		out[k] = v
	}
	return out
}

// ConfirmMessage возвращает сообщение о сбое последнего Confirm (пустая строка — сбоя не было).
func (c *Controller) ConfirmMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmMessage
}

// SetField записывает значение поля и оптимистично снимает с него ошибку.
// Повторная валидация происходит только при следующем переходе вперёд.
func (c *Controller) SetField(field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case domain.FieldFirstName:
		c.form.FirstName = value
	case domain.FieldLastName:
		c.form.LastName = value
	case domain.FieldDNI:
		c.form.DNI = value
	case domain.FieldPhone:
		c.form.Phone = value
	case domain.FieldProvince:
		c.form.Province = value
	case domain.FieldCity:
		c.form.City = value
	case domain.FieldAddress:
		c.form.Address = value
	case domain.FieldPostalCode:
		c.form.PostalCode = value
	case domain.FieldFloor:
		c.form.Floor = value
	case domain.FieldCarrier:
		if carrier := domain.Carrier(value); carrier.Valid() {
			c.form.Carrier = carrier
		}
		// Неизвестный перевозчик игнорируется: охраняемый no-op.
	case domain.FieldDeliveryType:
		if delivery := domain.DeliveryType(value); delivery.Valid() {
			c.form.DeliveryType = delivery
		}
	default:
		return
	}
	delete(c.fieldErrors, field)
}

// Next пытается перейти на следующий шаг. При провале валидации контроллер
// остаётся на месте, а карта ошибок заменяется свежей (сообщения не копятся).
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.step {
	case domain.StepIdentity:
		if errs := c.form.ValidateIdentity(); len(errs) > 0 {
			c.rejectStep(errs)
			return domain.ErrStepBlocked
		}
		c.fieldErrors = make(map[string]string)
		c.step = domain.StepShipping
	case domain.StepShipping:
		if errs := c.form.ValidateShipping(); len(errs) > 0 {
			c.rejectStep(errs)
			return domain.ErrStepBlocked
		}
		c.fieldErrors = make(map[string]string)
		c.step = domain.StepReview
	case domain.StepReview:
		// Терминальный шаг: дальше только Confirm.
	}
	return nil
}

// Back возвращается на предыдущий шаг без какой-либо валидации.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step > domain.StepIdentity {
		c.step--
	}
}

func (c *Controller) rejectStep(errs map[string]string) {
	c.fieldErrors = errs
	if c.metrics != nil {
		c.metrics.RecordValidationFailed(c.step.String())
	}
}

// CurrentQuote считает доставку и итог из актуального состояния корзины.
// При subtotal выше порога доставка бесплатна независимо от выбора перевозчика.
func (c *Controller) CurrentQuote() Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentQuoteLocked()
}

func (c *Controller) currentQuoteLocked() Quote {
	subtotal := c.cart.Subtotal()
	q := Quote{Subtotal: subtotal, FreeShipping: pricing.FreeShipping(subtotal)}
	if !q.FreeShipping {
		q.ShippingCost = pricing.ShippingCost(c.form.Carrier, c.form.DeliveryType)
	}
	q.Total = q.Subtotal + q.ShippingCost
	return q
}

// Confirm передаёт позиционированный заказ платёжному шлюзу и возвращает URL
// редиректа. При любом сбое контроллер остаётся на review, корзина и профиль
// не трогаются; операция повторяема, автоматических ретраев нет.
func (c *Controller) Confirm(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != domain.StepReview {
		return "", domain.ErrStepBlocked
	}

	start := c.now()
	c.confirmMessage = ""

	req := c.buildPreferenceRequest()
	pref, err := c.gateway.CreatePreference(ctx, req)
	if err != nil {
		return "", c.failConfirm(req.ExternalReference, fmt.Errorf("create preference: %w", err))
	}
	redirect := pref.RedirectURL()
	if redirect == "" {
		return "", c.failConfirm(req.ExternalReference, domain.ErrNoRedirectURL)
	}

	// Успех: профиль сохраняется для префилла, корзина очищается,
	// события заказа уходят через outbox.
	if c.saveProfile != nil {
		if err := c.saveProfile(c.profileFromForm()); err != nil {
			c.logger.WithError(err).Warn("failed to persist checkout profile")
		}
	}
	c.enqueueEvent(kafka.EventTypePreferenceCreated, req.ExternalReference, map[string]any{
		"external_reference": req.ExternalReference,
		"preference_id":      pref.ID,
		"customer_id":        c.identity.ID,
	})
	c.enqueueConfirmedEvent(req, pref)
	c.cart.Clear()

	if c.metrics != nil {
		c.metrics.RecordCheckoutConfirmed()
		c.metrics.RecordConfirmDuration(c.now().Sub(start))
	}
	c.logger.WithFields(log.Fields{
		"preference_id":      pref.ID,
		"external_reference": req.ExternalReference,
	}).Info("checkout confirmed, handing off to payment gateway")

	return redirect, nil
}

// failConfirm фиксирует сбой подтверждения: пользовательское сообщение,
// метрика и событие checkout.failed.
func (c *Controller) failConfirm(externalReference string, err error) error {
	c.confirmMessage = confirmFailedMessage
	if c.metrics != nil {
		c.metrics.RecordCheckoutFailed()
	}
	c.enqueueEvent(kafka.EventTypeCheckoutFailed, externalReference, map[string]any{
		"external_reference": externalReference,
		"customer_id":        c.identity.ID,
		"reason":             err.Error(),
	})
	c.logger.WithError(err).Warn("checkout confirmation failed")
	return err
}

// buildPreferenceRequest собирает позиции заказа: по одной на строку корзины
// плюс, только при платной доставке, синтетическая строка стоимости доставки.
func (c *Controller) buildPreferenceRequest() domain.PreferenceRequest {
	quote := c.currentQuoteLocked()
	lines := c.cart.Lines()

	items := make([]domain.PreferenceItem, 0, len(lines)+1)
	for _, line := range lines {
		items = append(items, domain.PreferenceItem{
			ID:         line.ID,
			Title:      line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.EffectivePrice(),
			CurrencyID: "ARS",
			PictureURL: line.Image,
		})
	}
	if !quote.FreeShipping {
		items = append(items, domain.PreferenceItem{
			ID: shippingLineID,
			Title: fmt.Sprintf("Envío %s – %s",
				pricing.CarrierName(c.form.Carrier),
				pricing.DeliveryLabel(c.form.DeliveryType)),
			Quantity:   1,
			UnitPrice:  quote.ShippingCost,
			CurrencyID: "ARS",
		})
	}

	req := domain.PreferenceRequest{
		Items:             items,
		BackURLs:          c.backURLs,
		ExternalReference: fmt.Sprintf("kiki-%d", c.now().UnixMilli()),
	}
	if c.identity.Email != "" {
		req.Payer = &domain.Payer{Email: c.identity.Email}
	}
	return req
}

// enqueueConfirmedEvent кладёт событие подтверждённого заказа в outbox;
// публикацией в брокер занимается фоновый worker.
func (c *Controller) enqueueConfirmedEvent(req domain.PreferenceRequest, pref domain.Preference) {
	c.enqueueEvent(kafka.EventTypeCheckoutConfirmed, req.ExternalReference, map[string]any{
		"external_reference": req.ExternalReference,
		"preference_id":      pref.ID,
		"customer_id":        c.identity.ID,
		"payer_email":        c.identity.Email,
		"items":              req.Items,
		"total":              c.currentQuoteLocked().Total,
	})
}

// enqueueEvent сериализует payload и кладёт событие флоу в outbox.
// Отсутствие outbox — валидная конфигурация: события просто не публикуются.
func (c *Controller) enqueueEvent(eventType kafka.EventType, aggregateID string, payload map[string]any) {
	if c.outbox == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).WithField("event_type", eventType).Warn("failed to marshal checkout event payload")
		return
	}

	if _, err := c.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "checkout",
		AggregateID:   aggregateID,
		EventType:     string(eventType),
		Payload:       raw,
	}); err != nil {
		c.logger.WithError(err).WithField("event_type", eventType).Warn("failed to enqueue checkout event")
	}
}

func (c *Controller) profileFromForm() domain.Profile {
	return domain.Profile{
		FirstName:  c.form.FirstName,
		LastName:   c.form.LastName,
		DNI:        c.form.DNI,
		Phone:      c.form.Phone,
		Province:   c.form.Province,
		City:       c.form.City,
		Address:    c.form.Address,
		PostalCode: c.form.PostalCode,
	}
}
