package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики флоу оформления заказа и корзины.
type CheckoutMetrics struct {
	// Счётчики жизненного цикла checkout
	checkoutStarted   prometheus.Counter
	checkoutConfirmed prometheus.Counter
	checkoutFailed    prometheus.Counter

	// Провалы валидации по шагам
	validationFailed *prometheus.CounterVec

	// Гистограмма времени подтверждения (включая вызов шлюза)
	confirmDuration prometheus.Histogram

	// Счётчики операций корзины
	cartAdds       prometheus.Counter
	cartBulkAdds   prometheus.Counter
	cartRemovals   prometheus.Counter
	activeCheckout prometheus.Gauge
}

// NewCheckoutMetrics создаёт метрики в дефолтном registerer-е.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		checkoutStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiki_checkout_started_total",
			Help: "Total number of checkout flows started",
		}),
		checkoutConfirmed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiki_checkout_confirmed_total",
			Help: "Total number of checkouts handed off to the payment gateway",
		}),
		checkoutFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiki_checkout_failed_total",
			Help: "Total number of checkout confirmations failed at the gateway",
		}),
		validationFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "kiki_checkout_validation_failed_total",
			Help: "Total number of rejected forward step transitions grouped by step",
		}, []string{"step"}),
		confirmDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "kiki_checkout_confirm_duration_seconds",
			Help:    "Duration of checkout confirmation including the gateway call",
			Buckets: prometheus.DefBuckets,
		}),
		cartAdds: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiki_cart_adds_total",
			Help: "Total number of single-item cart additions",
		}),
		cartBulkAdds: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiki_cart_bulk_adds_total",
			Help: "Total number of discounted collection additions",
		}),
		cartRemovals: registerCounter(registerer, prometheus.CounterOpts{
			Name: "kiki_cart_removals_total",
			Help: "Total number of cart line removals",
		}),
		activeCheckout: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "kiki_active_checkouts",
			Help: "Number of checkout flows currently in progress",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCheckoutStarted увеличивает счётчик начатых checkout и gauge активных.
func (m *CheckoutMetrics) RecordCheckoutStarted() {
	m.checkoutStarted.Inc()
	m.activeCheckout.Inc()
}

// RecordCheckoutConfirmed фиксирует успешную передачу заказа шлюзу.
func (m *CheckoutMetrics) RecordCheckoutConfirmed() {
	m.checkoutConfirmed.Inc()
	m.activeCheckout.Dec()
}

// RecordCheckoutFailed фиксирует сбой подтверждения (checkout остаётся активным).
func (m *CheckoutMetrics) RecordCheckoutFailed() {
	m.checkoutFailed.Inc()
}

// RecordCheckoutAbandoned уменьшает gauge активных checkout без подтверждения.
func (m *CheckoutMetrics) RecordCheckoutAbandoned() {
	m.activeCheckout.Dec()
}

// RecordValidationFailed фиксирует отклонённый переход вперёд на данном шаге.
func (m *CheckoutMetrics) RecordValidationFailed(step string) {
	m.validationFailed.WithLabelValues(step).Inc()
}

// RecordConfirmDuration записывает длительность подтверждения.
func (m *CheckoutMetrics) RecordConfirmDuration(d time.Duration) {
	m.confirmDuration.Observe(d.Seconds())
}

// RecordCartAdd фиксирует одиночное добавление в корзину.
func (m *CheckoutMetrics) RecordCartAdd() {
	m.cartAdds.Inc()
}

// RecordCartBulkAdd фиксирует добавление коллекции со скидкой.
func (m *CheckoutMetrics) RecordCartBulkAdd() {
	m.cartBulkAdds.Inc()
}

// RecordCartRemoval фиксирует удаление строки из корзины.
func (m *CheckoutMetrics) RecordCartRemoval() {
	m.cartRemovals.Inc()
}
