package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

// productRepositoryInMemory — in-memory реализация каталога товаров
// для локальной разработки и тестов.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
	// order хранит порядок первого добавления для стабильной выдачи List.
	order []string
}

// NewProductRepository возвращает пустой in-memory каталог товаров.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// List возвращает товары; фильтр категории — регистронезависимое вхождение,
// пустая строка и "Todos" отключают фильтр (поведение оригинального API).
func (r *productRepositoryInMemory) List(category string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter := strings.ToLower(strings.TrimSpace(category))
	all := filter == "" || filter == "todos"

	result := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.items[id]
		if all || strings.Contains(strings.ToLower(p.Category), filter) {
			result = append(result, p)
		}
	}
	return result, nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Upsert перезаписывает товар целиком.
func (r *productRepositoryInMemory) Upsert(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; !exists {
		r.order = append(r.order, product.ID)
	}
	r.items[product.ID] = product
	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)

// collectionRepositoryInMemory — in-memory реализация хранилища коллекций.
type collectionRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Collection
}

// NewCollectionRepository возвращает пустое in-memory хранилище коллекций.
func NewCollectionRepository() domain.CollectionRepository {
	return &collectionRepositoryInMemory{
		items: make(map[string]domain.Collection),
	}
}

// List возвращает все коллекции, отсортированные по ID для стабильности выдачи.
func (r *collectionRepositoryInMemory) List() ([]domain.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Collection, 0, len(r.items))
	for _, c := range r.items {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Get возвращает коллекцию или ErrCollectionNotFound.
func (r *collectionRepositoryInMemory) Get(id string) (domain.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	collection, ok := r.items[id]
	if !ok {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	return collection, nil
}

// Upsert перезаписывает коллекцию целиком.
func (r *collectionRepositoryInMemory) Upsert(collection domain.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[collection.ID] = collection
	return nil
}

var _ domain.CollectionRepository = (*collectionRepositoryInMemory)(nil)
