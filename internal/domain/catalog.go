package domain

// Product — запись каталога, как её отдаёт REST-слой витрины.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Price — актуальная цена в целых песо; OriginalPrice заполняется,
	// когда товар продаётся дешевле зачёркнутой цены.
	Price         int64    `json:"price"`
	OriginalPrice int64    `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
	Images        []string `json:"images,omitempty"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	Description   string   `json:"description,omitempty"`
	Features      []string `json:"features,omitempty"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
}

// Collection — кураторская подборка товаров, продаваемая со скидкой.
type Collection struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tagline     string   `json:"tagline,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverImage  string   `json:"coverImage,omitempty"`
	AccentColor string   `json:"accentColor,omitempty"`
	ProductIDs  []string `json:"productIds"`
	Tags        []string `json:"tags,omitempty"`
}
