package domain

import "errors"

var (
	// Ошибка пустого идентификатора строки корзины.
	ErrLineIDRequired = errors.New("cart line id is required")
	// Ошибка количества меньше единицы в сохранённой строке.
	ErrLineQtyInvalid = errors.New("cart line quantity must be at least 1")
	// Ошибка отрицательной цены строки.
	ErrLinePriceInvalid = errors.New("cart line price must be non-negative")
	// Ошибка дублирования ID строки: в корзине строки сливаются, а не добавляются.
	ErrLineDuplicated = errors.New("cart contains duplicate line id")

	// ErrLoginRequired возвращается при попытке начать checkout без авторизации.
	ErrLoginRequired = errors.New("login required to start checkout")
	// ErrCartEmpty возвращается при попытке начать checkout с пустой корзиной.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrStepBlocked сигнализирует, что переход вперёд отклонён валидацией шага.
	ErrStepBlocked = errors.New("step validation failed")
	// ErrCheckoutNotStarted возвращается при обращении к не начатому checkout.
	ErrCheckoutNotStarted = errors.New("checkout is not started")

	// ErrProductNotFound возвращается, если товара нет в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCollectionNotFound возвращается, если коллекции нет в каталоге.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrSessionRecordNotFound возвращается, если в session store нет записи по ключу.
	ErrSessionRecordNotFound = errors.New("session record not found")

	// ErrPreferenceItemsRequired — шлюзу нельзя отправить пустой список позиций.
	ErrPreferenceItemsRequired = errors.New("preference must contain at least one item")
	// ErrPaymentGateway — шлюз ответил ошибкой или недоступен.
	ErrPaymentGateway = errors.New("payment gateway request failed")
	// ErrNoRedirectURL — шлюз не вернул ни init_point, ни sandbox_init_point.
	ErrNoRedirectURL = errors.New("payment gateway returned no redirect url")

	// ErrIdentityExchange — обмен access-токена на профиль не удался.
	ErrIdentityExchange = errors.New("identity token exchange failed")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)
