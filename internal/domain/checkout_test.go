package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

// helper для полностью валидной формы с доставкой на дом.
func makeForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		FirstName:    "Valentina",
		LastName:     "García",
		DNI:          "12345678",
		Phone:        "11 5555 4444",
		Province:     "Buenos Aires",
		City:         "La Plata",
		Address:      "Calle 7 n 1234",
		PostalCode:   "1900",
		Carrier:      domain.CarrierCorreoArgentino,
		DeliveryType: domain.DeliveryHome,
	}
}

func TestValidateIdentity_Ok(t *testing.T) {
	if errs := makeForm().ValidateIdentity(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateIdentity_Errors(t *testing.T) {
	cases := []struct {
		name    string
		mut     func(f *domain.CheckoutForm)
		field   string
		message string
	}{
		{
			name:    "first name blank",
			mut:     func(f *domain.CheckoutForm) { f.FirstName = "   " },
			field:   domain.FieldFirstName,
			message: "Requerido",
		},
		{
			name:    "last name missing",
			mut:     func(f *domain.CheckoutForm) { f.LastName = "" },
			field:   domain.FieldLastName,
			message: "Requerido",
		},
		{
			name:    "dni too short",
			mut:     func(f *domain.CheckoutForm) { f.DNI = "123" },
			field:   domain.FieldDNI,
			message: "DNI inválido (7-8 dígitos)",
		},
		{
			name:    "dni with letters",
			mut:     func(f *domain.CheckoutForm) { f.DNI = "1234567a" },
			field:   domain.FieldDNI,
			message: "DNI inválido (7-8 dígitos)",
		},
		{
			name:    "phone too short",
			mut:     func(f *domain.CheckoutForm) { f.Phone = "123" },
			field:   domain.FieldPhone,
			message: "Teléfono inválido",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := makeForm()
			tc.mut(&form)

			errs := form.ValidateIdentity()
			if got := errs[tc.field]; got != tc.message {
				t.Fatalf("expected %q for field %s, got %q (all: %v)", tc.message, tc.field, got, errs)
			}
		})
	}
}

// Телефон с пробелами-разделителями валиден: пробелы убираются до проверки.
func TestValidateIdentity_PhoneAllowsSpaces(t *testing.T) {
	form := makeForm()
	form.Phone = "11 5555 4444"
	if errs := form.ValidateIdentity(); errs[domain.FieldPhone] != "" {
		t.Fatalf("expected phone with spaces to be valid, got %v", errs)
	}
}

func TestValidateShipping_Ok(t *testing.T) {
	if errs := makeForm().ValidateShipping(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateShipping_Errors(t *testing.T) {
	cases := []struct {
		name    string
		mut     func(f *domain.CheckoutForm)
		field   string
		message string
	}{
		{
			name:    "unknown province",
			mut:     func(f *domain.CheckoutForm) { f.Province = "Narnia" },
			field:   domain.FieldProvince,
			message: "Seleccioná una provincia",
		},
		{
			name:    "city missing",
			mut:     func(f *domain.CheckoutForm) { f.City = "" },
			field:   domain.FieldCity,
			message: "Requerido",
		},
		{
			name:    "home delivery without address",
			mut:     func(f *domain.CheckoutForm) { f.Address = "" },
			field:   domain.FieldAddress,
			message: "Requerido para envío a domicilio",
		},
		{
			name:    "home delivery with bad postal code",
			mut:     func(f *domain.CheckoutForm) { f.PostalCode = "19" },
			field:   domain.FieldPostalCode,
			message: "Código postal inválido (4 dígitos)",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := makeForm()
			tc.mut(&form)

			errs := form.ValidateShipping()
			if got := errs[tc.field]; got != tc.message {
				t.Fatalf("expected %q for field %s, got %q (all: %v)", tc.message, tc.field, got, errs)
			}
		})
	}
}

// При доставке в пункт выдачи адрес и индекс не обязательны.
func TestValidateShipping_PickupSkipsAddress(t *testing.T) {
	form := makeForm()
	form.DeliveryType = domain.DeliveryPickup
	form.Address = ""
	form.PostalCode = ""

	if errs := form.ValidateShipping(); len(errs) != 0 {
		t.Fatalf("expected pickup to skip address checks, got %v", errs)
	}
}

func TestCarrierAndDeliveryValid(t *testing.T) {
	if !domain.CarrierCorreoArgentino.Valid() || !domain.CarrierOCA.Valid() {
		t.Error("known carriers must be valid")
	}
	if domain.Carrier("dhl").Valid() {
		t.Error("unknown carrier must be invalid")
	}
	if !domain.DeliveryHome.Valid() || !domain.DeliveryPickup.Valid() {
		t.Error("known delivery types must be valid")
	}
	if domain.DeliveryType("drone").Valid() {
		t.Error("unknown delivery type must be invalid")
	}
}

func TestCheckoutStepString(t *testing.T) {
	cases := map[domain.CheckoutStep]string{
		domain.StepIdentity:     "identity",
		domain.StepShipping:     "shipping",
		domain.StepReview:       "review",
		domain.CheckoutStep(99): "unknown",
	}
	for step, want := range cases {
		if got := step.String(); got != want {
			t.Errorf("step %d: expected %q, got %q", step, want, got)
		}
	}
}

func TestValidProvince(t *testing.T) {
	if !domain.ValidProvince("Tierra del Fuego") {
		t.Error("expected Tierra del Fuego to be a valid province")
	}
	if domain.ValidProvince("buenos aires") {
		t.Error("province match is case sensitive against the closed list")
	}
}
