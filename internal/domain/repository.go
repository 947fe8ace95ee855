package domain

// ProductRepository описывает требования к хранилищу каталога товаров.
type ProductRepository interface {
	// List возвращает товары; category фильтрует регистронезависимым вхождением,
	// пустая строка и "Todos" означают «без фильтра».
	List(category string) ([]Product, error)
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(id string) (Product, error)
	// Upsert сохраняет товар целиком (для сидинга и админ-операций).
	Upsert(product Product) error
}

// CollectionRepository описывает требования к хранилищу коллекций.
type CollectionRepository interface {
	List() ([]Collection, error)
	// Get возвращает коллекцию по идентификатору или ErrCollectionNotFound.
	Get(id string) (Collection, error)
	Upsert(collection Collection) error
}
