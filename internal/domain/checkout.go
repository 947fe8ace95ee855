package domain

import (
	"regexp"
	"strings"
)

// CheckoutStep описывает шаг линейного checkout-флоу.
type CheckoutStep int

const (
	// StepIdentity — персональные данные покупателя.
	StepIdentity CheckoutStep = iota + 1
	// StepShipping — адрес и способ доставки.
	StepShipping
	// StepReview — итоговая проверка и подтверждение заказа.
	StepReview
)

// String возвращает имя шага для логов и API-ответов.
func (s CheckoutStep) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepShipping:
		return "shipping"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Carrier — транспортная компания, доставляющая заказ.
type Carrier string

const (
	CarrierCorreoArgentino Carrier = "correo-argentino"
	CarrierOCA             Carrier = "oca"
)

// Valid проверяет, что значение входит в поддерживаемый набор перевозчиков.
func (c Carrier) Valid() bool {
	return c == CarrierCorreoArgentino || c == CarrierOCA
}

// DeliveryType — вид доставки: на дом или в пункт выдачи.
type DeliveryType string

const (
	DeliveryHome   DeliveryType = "domicilio"
	DeliveryPickup DeliveryType = "sucursal"
)

// Valid проверяет, что значение входит в поддерживаемый набор видов доставки.
func (d DeliveryType) Valid() bool {
	return d == DeliveryHome || d == DeliveryPickup
}

// Provinces — закрытый список провинций Аргентины, допустимых в адресе доставки.
var Provinces = []string{
	"Buenos Aires", "CABA", "Catamarca", "Chaco", "Chubut", "Córdoba",
	"Corrientes", "Entre Ríos", "Formosa", "Jujuy", "La Pampa", "La Rioja",
	"Mendoza", "Misiones", "Neuquén", "Río Negro", "Salta", "San Juan",
	"San Luis", "Santa Cruz", "Santa Fe", "Santiago del Estero",
	"Tierra del Fuego", "Tucumán",
}

// ValidProvince сообщает, входит ли название в закрытый список провинций.
func ValidProvince(name string) bool {
	for _, p := range Provinces {
		if p == name {
			return true
		}
	}
	return false
}

var (
	dniPattern        = regexp.MustCompile(`^\d{7,8}$`)
	phonePattern      = regexp.MustCompile(`^\d{8,15}$`)
	postalCodePattern = regexp.MustCompile(`^\d{4}$`)
	whitespacePattern = regexp.MustCompile(`\s`)
)

// Имена полей формы; используются как ключи в картах ошибок валидации.
const (
	FieldFirstName    = "firstName"
	FieldLastName     = "lastName"
	FieldDNI          = "dni"
	FieldPhone        = "phone"
	FieldProvince     = "province"
	FieldCity         = "city"
	FieldAddress      = "address"
	FieldPostalCode   = "postalCode"
	FieldFloor        = "floor"
	FieldCarrier      = "carrier"
	FieldDeliveryType = "deliveryType"
)

// CheckoutForm накапливает данные покупателя по мере прохождения шагов.
type CheckoutForm struct {
	FirstName string
	LastName  string
	DNI       string
	Phone     string

	Province   string
	City       string
	Address    string
	PostalCode string
	// Floor — этаж/квартира, опционально и только для доставки на дом.
	Floor string

	Carrier      Carrier
	DeliveryType DeliveryType
}

// ValidateIdentity проверяет поля первого шага. Возвращает карту
// "поле -> сообщение"; пустая карта означает успех. Сообщения пользовательские,
// поэтому остаются на испанском, как в витрине.
func (f CheckoutForm) ValidateIdentity() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(f.FirstName) == "" {
		errs[FieldFirstName] = "Requerido"
	}
	if strings.TrimSpace(f.LastName) == "" {
		errs[FieldLastName] = "Requerido"
	}
	if !dniPattern.MatchString(strings.TrimSpace(f.DNI)) {
		errs[FieldDNI] = "DNI inválido (7-8 dígitos)"
	}
	// Телефон допускает пробелы-разделители: сначала убираем их, потом матчим.
	if !phonePattern.MatchString(whitespacePattern.ReplaceAllString(f.Phone, "")) {
		errs[FieldPhone] = "Teléfono inválido"
	}
	return errs
}

// ValidateShipping проверяет поля второго шага. Улица и почтовый индекс
// обязательны только при доставке на дом.
func (f CheckoutForm) ValidateShipping() map[string]string {
	errs := make(map[string]string)
	if !ValidProvince(f.Province) {
		errs[FieldProvince] = "Seleccioná una provincia"
	}
	if strings.TrimSpace(f.City) == "" {
		errs[FieldCity] = "Requerido"
	}
	if f.DeliveryType == DeliveryHome {
		if strings.TrimSpace(f.Address) == "" {
			errs[FieldAddress] = "Requerido para envío a domicilio"
		}
		if !postalCodePattern.MatchString(strings.TrimSpace(f.PostalCode)) {
			errs[FieldPostalCode] = "Código postal inválido (4 dígitos)"
		}
	}
	return errs
}
