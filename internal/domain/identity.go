package domain

import "strings"

// Identity — профиль, полученный от внешнего identity-провайдера.
// Токен уже проверен провайдером; на этой границе данные принимаются на доверии.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// SplitName делит отображаемое имя на имя и фамилию для префилла формы:
// первое слово — имя, остальное — фамилия.
func (i Identity) SplitName() (first, last string) {
	parts := strings.Fields(i.Name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// Profile — сохранённые данные покупателя для префилла следующего checkout.
// Эфемерные поля формы (этаж, перевозчик, вид доставки) сюда не попадают.
type Profile struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	DNI        string `json:"dni"`
	Phone      string `json:"phone"`
	Province   string `json:"province"`
	City       string `json:"city"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
}
