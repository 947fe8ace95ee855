package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/service/cart"
	"github.com/vladislavdragonenkov/kiki/internal/service/checkout"
	"github.com/vladislavdragonenkov/kiki/internal/service/mercadopago"
	"github.com/vladislavdragonenkov/kiki/internal/storage/memory"
)

// helper: корзина с одной строкой за 2400 песо.
func makeCartStore() *cart.Store {
	s := cart.NewStore()
	s.AddOne(cart.Item{ID: "taza-ceramica", Name: "Taza", UnitPrice: 2400, Image: "/img/taza.jpg"})
	return s
}

func makeIdentity() *domain.Identity {
	return &domain.Identity{
		ID:    "user-1",
		Name:  "Valentina García",
		Email: "valentina@example.com",
	}
}

// helper: заполняет форму и доводит контроллер до review.
func advanceToReview(t *testing.T, ctl *checkout.Controller) {
	t.Helper()
	ctl.SetField(domain.FieldDNI, "12345678")
	ctl.SetField(domain.FieldPhone, "1155554444")
	if err := ctl.Next(); err != nil {
		t.Fatalf("identity step: %v (errors: %v)", err, ctl.FieldErrors())
	}
	ctl.SetField(domain.FieldProvince, "Buenos Aires")
	ctl.SetField(domain.FieldCity, "La Plata")
	ctl.SetField(domain.FieldAddress, "Calle 7 n 1234")
	ctl.SetField(domain.FieldPostalCode, "1900")
	if err := ctl.Next(); err != nil {
		t.Fatalf("shipping step: %v (errors: %v)", err, ctl.FieldErrors())
	}
}

func TestNew_Preconditions(t *testing.T) {
	gateway := mercadopago.NewMockGateway()

	if _, err := checkout.New(makeCartStore(), nil, gateway); !errors.Is(err, domain.ErrLoginRequired) {
		t.Errorf("expected ErrLoginRequired, got %v", err)
	}
	if _, err := checkout.New(cart.NewStore(), makeIdentity(), gateway); !errors.Is(err, domain.ErrCartEmpty) {
		t.Errorf("expected ErrCartEmpty, got %v", err)
	}
}

func TestNew_PrefillsFormFromIdentity(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	form := ctl.Form()
	if form.FirstName != "Valentina" || form.LastName != "García" {
		t.Errorf("expected name prefill, got %q %q", form.FirstName, form.LastName)
	}
	if form.Carrier != domain.CarrierCorreoArgentino {
		t.Errorf("expected default carrier, got %q", form.Carrier)
	}
	if form.DeliveryType != domain.DeliveryHome {
		t.Errorf("expected default delivery type, got %q", form.DeliveryType)
	}
	if ctl.Step() != domain.StepIdentity {
		t.Errorf("expected identity step, got %s", ctl.Step())
	}
}

func TestNew_SavedProfileWinsOverIdentity(t *testing.T) {
	profile := &domain.Profile{
		FirstName: "Vale",
		LastName:  "García Pérez",
		DNI:       "12345678",
		Phone:     "1155554444",
		Province:  "Córdoba",
		City:      "Córdoba",
	}
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway(),
		checkout.WithSavedProfile(profile))
	if err != nil {
		t.Fatal(err)
	}

	form := ctl.Form()
	if form.FirstName != "Vale" || form.LastName != "García Pérez" {
		t.Errorf("expected profile prefill to win, got %q %q", form.FirstName, form.LastName)
	}
	if form.DNI != "12345678" || form.Province != "Córdoba" {
		t.Errorf("expected profile fields, got dni=%q province=%q", form.DNI, form.Province)
	}
}

func TestNext_RejectsInvalidDNI(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	ctl.SetField(domain.FieldDNI, "123")
	ctl.SetField(domain.FieldPhone, "1155554444")

	if err := ctl.Next(); !errors.Is(err, domain.ErrStepBlocked) {
		t.Fatalf("expected ErrStepBlocked, got %v", err)
	}
	if ctl.Step() != domain.StepIdentity {
		t.Errorf("controller must stay on identity, got %s", ctl.Step())
	}
	if got := ctl.FieldErrors()[domain.FieldDNI]; got != "DNI inválido (7-8 dígitos)" {
		t.Errorf("unexpected dni error: %q", got)
	}
}

// Карта ошибок заменяется свежей при каждом отказе, сообщения не копятся.
func TestNext_ErrorMapIsReplaced(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	ctl.SetField(domain.FieldFirstName, "")
	ctl.SetField(domain.FieldDNI, "123")
	_ = ctl.Next()
	if len(ctl.FieldErrors()) != 3 { // firstName, dni, phone
		t.Fatalf("expected 3 errors, got %v", ctl.FieldErrors())
	}

	ctl.SetField(domain.FieldFirstName, "Valentina")
	ctl.SetField(domain.FieldDNI, "12345678")
	_ = ctl.Next()

	errsMap := ctl.FieldErrors()
	if len(errsMap) != 1 {
		t.Fatalf("expected only the phone error to remain, got %v", errsMap)
	}
	if _, ok := errsMap[domain.FieldPhone]; !ok {
		t.Fatalf("expected phone error, got %v", errsMap)
	}
}

// SetField оптимистично снимает ошибку с редактируемого поля.
func TestSetField_ClearsFieldError(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	ctl.SetField(domain.FieldDNI, "123")
	ctl.SetField(domain.FieldPhone, "1155554444")
	_ = ctl.Next()
	if _, ok := ctl.FieldErrors()[domain.FieldDNI]; !ok {
		t.Fatal("expected dni error after rejection")
	}

	ctl.SetField(domain.FieldDNI, "1234")
	if _, ok := ctl.FieldErrors()[domain.FieldDNI]; ok {
		t.Fatal("editing the field must clear its error until the next validation")
	}
}

func TestSetField_InvalidEnumIsIgnored(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	ctl.SetField(domain.FieldCarrier, "dhl")
	ctl.SetField(domain.FieldDeliveryType, "drone")

	form := ctl.Form()
	if form.Carrier != domain.CarrierCorreoArgentino || form.DeliveryType != domain.DeliveryHome {
		t.Fatalf("unknown enum values must be ignored, got %q %q", form.Carrier, form.DeliveryType)
	}
}

func TestBack_Unconditional(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	ctl.Back()
	if ctl.Step() != domain.StepShipping {
		t.Errorf("expected shipping, got %s", ctl.Step())
	}
	ctl.Back()
	if ctl.Step() != domain.StepIdentity {
		t.Errorf("expected identity, got %s", ctl.Step())
	}
	// С первого шага назад уйти нельзя.
	ctl.Back()
	if ctl.Step() != domain.StepIdentity {
		t.Errorf("expected identity after extra Back, got %s", ctl.Step())
	}
}

func TestCurrentQuote_PaidShipping(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	quote := ctl.CurrentQuote()
	if quote.Subtotal != 2400 || quote.FreeShipping {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if quote.ShippingCost != 4500 || quote.Total != 6900 {
		t.Fatalf("expected 2400+4500=6900, got %+v", quote)
	}
}

func TestCurrentQuote_FreeShippingAtThreshold(t *testing.T) {
	s := cart.NewStore()
	s.AddOne(cart.Item{ID: "manta", UnitPrice: 70000})

	ctl, err := checkout.New(s, makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	quote := ctl.CurrentQuote()
	if !quote.FreeShipping || quote.ShippingCost != 0 || quote.Total != 70000 {
		t.Fatalf("expected free shipping at the threshold, got %+v", quote)
	}
}

func TestConfirm_RequiresReviewStep(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ctl.Confirm(context.Background()); !errors.Is(err, domain.ErrStepBlocked) {
		t.Fatalf("expected ErrStepBlocked before review, got %v", err)
	}
}

func TestConfirm_BuildsPreferenceRequest(t *testing.T) {
	gateway := mercadopago.NewMockGateway()
	cartStore := makeCartStore()
	fixed := time.UnixMilli(1700000000000)

	ctl, err := checkout.New(cartStore, makeIdentity(), gateway,
		checkout.WithBackURLs(domain.BackURLs{
			Success: "http://shop.local/pago/success",
			Failure: "http://shop.local/pago/failure",
			Pending: "http://shop.local/pago/pending",
		}),
		checkout.WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	redirect, err := ctl.Confirm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if redirect != gateway.Preference.InitPoint {
		t.Errorf("expected init_point redirect, got %q", redirect)
	}

	req := gateway.LastReq
	if len(req.Items) != 2 {
		t.Fatalf("expected cart line + shipping line, got %d items", len(req.Items))
	}
	if req.Items[0].ID != "taza-ceramica" || req.Items[0].UnitPrice != 2400 || req.Items[0].CurrencyID != "ARS" {
		t.Errorf("unexpected cart item: %+v", req.Items[0])
	}
	shipping := req.Items[1]
	if shipping.ID != "envio" || shipping.UnitPrice != 4500 {
		t.Errorf("unexpected shipping item: %+v", shipping)
	}
	if shipping.Title != "Envío Correo Argentino – A domicilio" {
		t.Errorf("unexpected shipping title: %q", shipping.Title)
	}
	if req.Payer == nil || req.Payer.Email != "valentina@example.com" {
		t.Errorf("expected payer email, got %+v", req.Payer)
	}
	if req.ExternalReference != "kiki-1700000000000" {
		t.Errorf("unexpected external reference: %q", req.ExternalReference)
	}
	if req.BackURLs.Success != "http://shop.local/pago/success" {
		t.Errorf("unexpected back urls: %+v", req.BackURLs)
	}
}

// При бесплатной доставке синтетическая строка доставки не добавляется.
func TestConfirm_NoShippingLineWhenFree(t *testing.T) {
	gateway := mercadopago.NewMockGateway()
	s := cart.NewStore()
	s.AddOne(cart.Item{ID: "manta", UnitPrice: 80000})

	ctl, err := checkout.New(s, makeIdentity(), gateway)
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	if _, err := ctl.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(gateway.LastReq.Items) != 1 {
		t.Fatalf("expected single item without shipping, got %d", len(gateway.LastReq.Items))
	}
}

func TestConfirm_SuccessClearsCartAndSavesProfile(t *testing.T) {
	gateway := mercadopago.NewMockGateway()
	cartStore := makeCartStore()
	outboxRepo := memory.NewOutboxRepository()

	var saved *domain.Profile
	ctl, err := checkout.New(cartStore, makeIdentity(), gateway,
		checkout.WithProfileSink(func(p domain.Profile) error {
			saved = &p
			return nil
		}),
		checkout.WithOutbox(outboxRepo),
	)
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	if _, err := ctl.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !cartStore.IsEmpty() {
		t.Error("cart must be cleared after a successful confirm")
	}
	if saved == nil || saved.DNI != "12345678" || saved.City != "La Plata" {
		t.Errorf("expected profile to be saved from form, got %+v", saved)
	}

	pending, err := outboxRepo.PullPending(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 outbox events, got %d", len(pending))
	}
	seen := make(map[string]bool, len(pending))
	for _, msg := range pending {
		seen[msg.EventType] = true
	}
	for _, want := range []string{"checkout.started", "preference.created", "checkout.confirmed"} {
		if !seen[want] {
			t.Errorf("missing outbox event %s", want)
		}
	}
}

// Сбой шлюза оставляет в outbox событие checkout.failed, но не confirmed.
func TestConfirm_GatewayFailureEnqueuesFailedEvent(t *testing.T) {
	gateway := mercadopago.NewMockGateway()
	gateway.Err = domain.ErrPaymentGateway
	outboxRepo := memory.NewOutboxRepository()

	ctl, err := checkout.New(makeCartStore(), makeIdentity(), gateway,
		checkout.WithOutbox(outboxRepo),
	)
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	if _, err := ctl.Confirm(context.Background()); err == nil {
		t.Fatal("expected confirm to fail")
	}

	pending, err := outboxRepo.PullPending(10)
	if err != nil {
		t.Fatal(err)
	}
	var failed, confirmed bool
	for _, msg := range pending {
		switch msg.EventType {
		case "checkout.failed":
			failed = true
		case "checkout.confirmed":
			confirmed = true
		}
	}
	if !failed {
		t.Error("expected checkout.failed event in outbox")
	}
	if confirmed {
		t.Error("checkout.confirmed must not be enqueued on failure")
	}
}

func TestConfirm_GatewayFailureKeepsState(t *testing.T) {
	gateway := mercadopago.NewMockGateway()
	gateway.Err = domain.ErrPaymentGateway
	cartStore := makeCartStore()

	profileSaved := false
	ctl, err := checkout.New(cartStore, makeIdentity(), gateway,
		checkout.WithProfileSink(func(domain.Profile) error {
			profileSaved = true
			return nil
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	if _, err := ctl.Confirm(context.Background()); err == nil {
		t.Fatal("expected confirm to fail")
	}

	if ctl.Step() != domain.StepReview {
		t.Errorf("controller must stay on review, got %s", ctl.Step())
	}
	if cartStore.IsEmpty() {
		t.Error("cart must not be cleared on failure")
	}
	if profileSaved {
		t.Error("profile must not be saved on failure")
	}
	if ctl.ConfirmMessage() != "No se pudo conectar con el servidor de pagos. Intentá de nuevo." {
		t.Errorf("unexpected confirm message: %q", ctl.ConfirmMessage())
	}

	// Повторная попытка после восстановления шлюза должна пройти.
	gateway.Err = nil
	if _, err := ctl.Confirm(context.Background()); err != nil {
		t.Fatalf("retry must succeed: %v", err)
	}
	if ctl.ConfirmMessage() != "" {
		t.Errorf("confirm message must be reset on retry, got %q", ctl.ConfirmMessage())
	}
}

func TestConfirm_MissingRedirectIsFailure(t *testing.T) {
	gateway := mercadopago.NewMockGateway()
	gateway.Preference = domain.Preference{ID: "pref-1"} // без URL-ов

	cartStore := makeCartStore()
	ctl, err := checkout.New(cartStore, makeIdentity(), gateway)
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	if _, err := ctl.Confirm(context.Background()); !errors.Is(err, domain.ErrNoRedirectURL) {
		t.Fatalf("expected ErrNoRedirectURL, got %v", err)
	}
	if cartStore.IsEmpty() {
		t.Error("cart must not be cleared when the gateway returns no redirect")
	}
}

// Sandbox-URL используется, только когда боевой init_point отсутствует.
func TestConfirm_PrefersInitPoint(t *testing.T) {
	gateway := mercadopago.NewMockGateway()
	gateway.Preference = domain.Preference{
		ID:               "pref-1",
		SandboxInitPoint: "https://sandbox.example/checkout",
	}

	ctl, err := checkout.New(makeCartStore(), makeIdentity(), gateway)
	if err != nil {
		t.Fatal(err)
	}
	advanceToReview(t, ctl)

	redirect, err := ctl.Confirm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if redirect != "https://sandbox.example/checkout" {
		t.Errorf("expected sandbox fallback, got %q", redirect)
	}
}

// Параллельные запросы одной сессии редактируют форму и читают состояние
// одновременно: контроллер обязан сериализовать операции.
func TestConcurrentFieldEditsAndReads(t *testing.T) {
	ctl, err := checkout.New(makeCartStore(), makeIdentity(), mercadopago.NewMockGateway())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			ctl.SetField(domain.FieldDNI, "30123456")
			ctl.SetField(domain.FieldPhone, "1155554444")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			ctl.SetField(domain.FieldCity, "La Plata")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = ctl.Step()
			_ = ctl.Form()
			_ = ctl.FieldErrors()
			_ = ctl.CurrentQuote()
		}
	}()
	wg.Wait()

	form := ctl.Form()
	if form.DNI != "30123456" || form.Phone != "1155554444" || form.City != "La Plata" {
		t.Errorf("unexpected form after concurrent edits: %+v", form)
	}
	if ctl.Step() != domain.StepIdentity {
		t.Errorf("step must not move without Next, got %s", ctl.Step())
	}
}
