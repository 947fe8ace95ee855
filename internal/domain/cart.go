package domain

// CartLine представляет одну позицию корзины: товар и его количество.
type CartLine struct {
	// ID — идентификатор товара в каталоге; в корзине не бывает двух строк с одним ID.
	ID string
	// Name, Image и Color — отображаемые данные, фиксируются при первом добавлении.
	Name  string
	Image string
	Color string
	// UnitPrice — полная цена каталога на момент первого добавления, в целых песо (ARS).
	UnitPrice int64
	// DiscountedUnitPrice присутствует только если строка добавлялась со скидкой
	// коллекции; тогда именно она является фактической ценой списания.
	DiscountedUnitPrice *int64
	// Quantity всегда >= 1; строка с нулевым количеством удаляется, а не хранится.
	Quantity int32
}

// EffectivePrice возвращает фактическую цену за единицу: скидочную, если она есть.
func (l CartLine) EffectivePrice() int64 {
	if l.DiscountedUnitPrice != nil {
		return *l.DiscountedUnitPrice
	}
	return l.UnitPrice
}

// LineTotal возвращает стоимость строки с учётом количества.
func (l CartLine) LineTotal() int64 {
	return l.EffectivePrice() * int64(l.Quantity)
}

// Cart агрегирует строки корзины в порядке первого добавления.
type Cart struct {
	Lines []CartLine
}

// TotalItems возвращает суммарное количество единиц товара.
func (c Cart) TotalItems() int32 {
	var total int32
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Subtotal возвращает сумму (фактическая цена * количество) по всем строкам.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.LineTotal()
	}
	return total
}

// Find возвращает индекс строки с данным ID или -1.
func (c Cart) Find(id string) int {
	for i, l := range c.Lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// IsEmpty сообщает, пуста ли корзина.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clone возвращает глубокую копию корзины, безопасную для выдачи наружу.
func (c Cart) Clone() Cart {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	for i, l := range c.Lines {
		if l.DiscountedUnitPrice != nil {
			price := *l.DiscountedUnitPrice
			lines[i].DiscountedUnitPrice = &price
		}
	}
	return Cart{Lines: lines}
}

// ValidateInvariants проверяет базовые инварианты корзины и возвращает список замечаний.
func (c Cart) ValidateInvariants() []error {
	var errs []error

	seen := make(map[string]bool, len(c.Lines))
	for _, l := range c.Lines {
		if l.ID == "" {
			errs = append(errs, ErrLineIDRequired)
		}
		if l.Quantity < 1 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if l.UnitPrice < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		if l.DiscountedUnitPrice != nil && *l.DiscountedUnitPrice < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		if seen[l.ID] {
			errs = append(errs, ErrLineDuplicated)
		}
		seen[l.ID] = true
	}

	return errs
}
