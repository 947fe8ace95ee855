package domain

// PreferenceItem — одна позиция платёжной преференции в формате шлюза.
type PreferenceItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Quantity int32  `json:"quantity"`
	// UnitPrice — цена списания за единицу: для строк со скидкой это скидочная цена.
	UnitPrice  int64  `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
	PictureURL string `json:"picture_url,omitempty"`
}

// BackURLs — адреса возврата покупателя после оплаты.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// Payer — данные плательщика; email присутствует только для залогиненных покупателей.
type Payer struct {
	Email string `json:"email"`
}

// PreferenceRequest — запрос на создание платёжной преференции.
type PreferenceRequest struct {
	Items    []PreferenceItem `json:"items"`
	Payer    *Payer           `json:"payer,omitempty"`
	BackURLs BackURLs         `json:"back_urls"`
	// ExternalReference связывает платёж с заказом на нашей стороне.
	ExternalReference string `json:"external_reference"`
}

// Preference — ответ шлюза: идентификатор и URL-ы редиректа на оплату.
// InitPoint — боевой URL, SandboxInitPoint — тестовый; предпочитается боевой.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// RedirectURL возвращает адрес, на который нужно отправить покупателя,
// или пустую строку, если шлюз не вернул ни одного URL.
func (p Preference) RedirectURL() string {
	if p.InitPoint != "" {
		return p.InitPoint
	}
	return p.SandboxInitPoint
}
