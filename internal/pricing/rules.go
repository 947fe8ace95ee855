// Пакет pricing содержит чистые правила ценообразования витрины:
// порог бесплатной доставки, тарифы перевозчиков и скидку коллекций.
// Все суммы — в целых песо (ARS); дробные единицы не моделируются.
package pricing

import (
	"math"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

const (
	// FreeShippingThreshold — с этой суммы subtotal доставка бесплатна.
	FreeShippingThreshold int64 = 70000
	// CollectionDiscount — доля скидки при покупке коллекции целиком.
	CollectionDiscount = 0.13
)

// shippingRates — фиксированная таблица 2x2: перевозчик x вид доставки.
var shippingRates = map[domain.Carrier]map[domain.DeliveryType]int64{
	domain.CarrierCorreoArgentino: {
		domain.DeliveryHome:   4500,
		domain.DeliveryPickup: 2800,
	},
	domain.CarrierOCA: {
		domain.DeliveryHome:   5200,
		domain.DeliveryPickup: 3200,
	},
}

// carrierNames — отображаемые названия перевозчиков.
var carrierNames = map[domain.Carrier]string{
	domain.CarrierCorreoArgentino: "Correo Argentino",
	domain.CarrierOCA:             "OCA",
}

// deliveryDays — оценка сроков доставки для карточек выбора перевозчика.
var deliveryDays = map[domain.Carrier]map[domain.DeliveryType]string{
	domain.CarrierCorreoArgentino: {
		domain.DeliveryHome:   "5-10 días hábiles",
		domain.DeliveryPickup: "4-8 días hábiles",
	},
	domain.CarrierOCA: {
		domain.DeliveryHome:   "3-7 días hábiles",
		domain.DeliveryPickup: "2-5 días hábiles",
	},
}

// ShippingCost возвращает стоимость доставки по таблице тарифов.
// Неизвестная комбинация стоит 0: валидация значений происходит в форме checkout.
func ShippingCost(carrier domain.Carrier, delivery domain.DeliveryType) int64 {
	return shippingRates[carrier][delivery]
}

// FreeShipping сообщает, превышает ли subtotal порог бесплатной доставки.
func FreeShipping(subtotal int64) bool {
	return subtotal >= FreeShippingThreshold
}

// CarrierName возвращает отображаемое название перевозчика.
func CarrierName(carrier domain.Carrier) string {
	return carrierNames[carrier]
}

// DeliveryDays возвращает строку с оценкой сроков доставки.
func DeliveryDays(carrier domain.Carrier, delivery domain.DeliveryType) string {
	return deliveryDays[carrier][delivery]
}

// DeliveryLabel возвращает пользовательскую подпись вида доставки.
func DeliveryLabel(delivery domain.DeliveryType) string {
	if delivery == domain.DeliveryPickup {
		return "A sucursal"
	}
	return "A domicilio"
}

// Round округляет денежную величину до ближайшего целого песо.
func Round(amount float64) int64 {
	return int64(math.Round(amount))
}

// Discounted возвращает цену с применённой долей скидки, округлённую до целого.
// Доля вне (0;1) трактуется как скидка по умолчанию.
func Discounted(price int64, fraction float64) int64 {
	if fraction <= 0 || fraction >= 1 {
		fraction = CollectionDiscount
	}
	return Round(float64(price) * (1 - fraction))
}

// WeightedAverage пересчитывает фактическую цену строки как средневзвешенную
// между прежней ценой qty единиц и ценой одной добавляемой единицы.
func WeightedAverage(currentPrice int64, qty int32, incomingPrice int64) int64 {
	total := float64(currentPrice)*float64(qty) + float64(incomingPrice)
	return Round(total / float64(qty+1))
}
