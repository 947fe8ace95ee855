package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCheckoutLifecycleCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetricsWithRegisterer(registry)

	m.RecordCheckoutStarted()
	m.RecordCheckoutStarted()
	m.RecordCheckoutConfirmed()

	if got := testutil.ToFloat64(m.checkoutStarted); got != 2 {
		t.Errorf("expected 2 started, got %v", got)
	}
	if got := testutil.ToFloat64(m.checkoutConfirmed); got != 1 {
		t.Errorf("expected 1 confirmed, got %v", got)
	}
	// Второй флоу всё ещё активен.
	if got := testutil.ToFloat64(m.activeCheckout); got != 1 {
		t.Errorf("expected 1 active checkout, got %v", got)
	}

	m.RecordCheckoutAbandoned()
	if got := testutil.ToFloat64(m.activeCheckout); got != 0 {
		t.Errorf("expected 0 active checkouts, got %v", got)
	}
}

func TestCheckoutFailureKeepsFlowActive(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetricsWithRegisterer(registry)

	m.RecordCheckoutStarted()
	m.RecordCheckoutFailed()

	if got := testutil.ToFloat64(m.checkoutFailed); got != 1 {
		t.Errorf("expected 1 failed, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeCheckout); got != 1 {
		t.Errorf("failed confirm must keep the checkout active, got %v", got)
	}
}

func TestValidationFailedByStep(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetricsWithRegisterer(registry)

	m.RecordValidationFailed("identity")
	m.RecordValidationFailed("identity")
	m.RecordValidationFailed("shipping")

	if got := testutil.ToFloat64(m.validationFailed.WithLabelValues("identity")); got != 2 {
		t.Errorf("expected 2 identity failures, got %v", got)
	}
	if got := testutil.ToFloat64(m.validationFailed.WithLabelValues("shipping")); got != 1 {
		t.Errorf("expected 1 shipping failure, got %v", got)
	}
}

func TestCartCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetricsWithRegisterer(registry)

	m.RecordCartAdd()
	m.RecordCartBulkAdd()
	m.RecordCartRemoval()
	m.RecordConfirmDuration(120 * time.Millisecond)

	if got := testutil.ToFloat64(m.cartAdds); got != 1 {
		t.Errorf("expected 1 cart add, got %v", got)
	}
	if got := testutil.ToFloat64(m.cartBulkAdds); got != 1 {
		t.Errorf("expected 1 bulk add, got %v", got)
	}
	if got := testutil.ToFloat64(m.cartRemovals); got != 1 {
		t.Errorf("expected 1 removal, got %v", got)
	}
}

func TestDoubleRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := newCheckoutMetricsWithRegisterer(registry)
	second := newCheckoutMetricsWithRegisterer(registry)

	first.RecordCartAdd()
	second.RecordCartAdd()

	if got := testutil.ToFloat64(first.cartAdds); got != 2 {
		t.Errorf("expected both instances to share one collector, got %v", got)
	}
}
