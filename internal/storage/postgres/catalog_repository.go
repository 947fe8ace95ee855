package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) List(category string) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, name, price, original_price, image, images, category,
		       tags, colors, description, features, rating, reviews
		FROM products
	`
	args := []any{}

	category = strings.TrimSpace(category)
	if category != "" && !strings.EqualFold(category, "todos") {
		query += ` WHERE category ILIKE '%' || $1 || '%'`
		args = append(args, category)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return result, nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, original_price, image, images, category,
		       tags, colors, description, features, rating, reviews
		FROM products
		WHERE id = $1
	`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, err
	}

	return product, nil
}

func (r *productRepository) Upsert(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	images, err := encodeStrings(product.Images)
	if err != nil {
		return err
	}
	tags, err := encodeStrings(product.Tags)
	if err != nil {
		return err
	}
	colors, err := encodeStrings(product.Colors)
	if err != nil {
		return err
	}
	features, err := encodeStrings(product.Features)
	if err != nil {
		return err
	}

	originalPrice := sql.NullInt64{Int64: product.OriginalPrice, Valid: product.OriginalPrice > 0}

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, price, original_price, image, images, category,
			tags, colors, description, features, rating, reviews,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			image = EXCLUDED.image,
			images = EXCLUDED.images,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			colors = EXCLUDED.colors,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			rating = EXCLUDED.rating,
			reviews = EXCLUDED.reviews,
			updated_at = EXCLUDED.updated_at
	`,
		product.ID, product.Name, product.Price, originalPrice,
		product.Image, images, product.Category, tags, colors,
		product.Description, features, product.Rating, product.Reviews, now,
	); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

type collectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository создаёт PostgreSQL-реализацию CollectionRepository.
func NewCollectionRepository(store *Store) domain.CollectionRepository {
	return &collectionRepository{db: store.DB()}
}

func (r *collectionRepository) List() ([]domain.Collection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, tagline, description, cover_image, accent_color, product_ids, tags
		FROM collections
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("select collections: %w", err)
	}
	defer rows.Close()

	var result []domain.Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, collection)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection rows: %w", err)
	}

	return result, nil
}

func (r *collectionRepository) Get(id string) (domain.Collection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, tagline, description, cover_image, accent_color, product_ids, tags
		FROM collections
		WHERE id = $1
	`, id)

	collection, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Collection{}, domain.ErrCollectionNotFound
		}
		return domain.Collection{}, err
	}

	return collection, nil
}

func (r *collectionRepository) Upsert(collection domain.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	productIDs, err := encodeStrings(collection.ProductIDs)
	if err != nil {
		return err
	}
	tags, err := encodeStrings(collection.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO collections (
			id, name, tagline, description, cover_image, accent_color,
			product_ids, tags, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			tagline = EXCLUDED.tagline,
			description = EXCLUDED.description,
			cover_image = EXCLUDED.cover_image,
			accent_color = EXCLUDED.accent_color,
			product_ids = EXCLUDED.product_ids,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at
	`,
		collection.ID, collection.Name, collection.Tagline, collection.Description,
		collection.CoverImage, collection.AccentColor, productIDs, tags, now,
	); err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		product       domain.Product
		originalPrice sql.NullInt64
		images        []byte
		tags          []byte
		colors        []byte
		features      []byte
	)

	if err := row.Scan(
		&product.ID, &product.Name, &product.Price, &originalPrice,
		&product.Image, &images, &product.Category, &tags, &colors,
		&product.Description, &features, &product.Rating, &product.Reviews,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}

	if originalPrice.Valid {
		product.OriginalPrice = originalPrice.Int64
	}

	var err error
	if product.Images, err = decodeStrings(images); err != nil {
		return domain.Product{}, err
	}
	if product.Tags, err = decodeStrings(tags); err != nil {
		return domain.Product{}, err
	}
	if product.Colors, err = decodeStrings(colors); err != nil {
		return domain.Product{}, err
	}
	if product.Features, err = decodeStrings(features); err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

func scanCollection(row rowScanner) (domain.Collection, error) {
	var (
		collection domain.Collection
		productIDs []byte
		tags       []byte
	)

	if err := row.Scan(
		&collection.ID, &collection.Name, &collection.Tagline, &collection.Description,
		&collection.CoverImage, &collection.AccentColor, &productIDs, &tags,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Collection{}, err
		}
		return domain.Collection{}, fmt.Errorf("scan collection: %w", err)
	}

	var err error
	if collection.ProductIDs, err = decodeStrings(productIDs); err != nil {
		return domain.Collection{}, err
	}
	if collection.Tags, err = decodeStrings(tags); err != nil {
		return domain.Collection{}, err
	}

	return collection, nil
}

// Списочные поля каталога хранятся как jsonb — так сканирование остаётся
// в рамках database/sql без pgx-специфичных типов массивов.
func encodeStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode string list: %w", err)
	}
	return data, nil
}

func decodeStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

var (
	_ domain.ProductRepository    = (*productRepository)(nil)
	_ domain.CollectionRepository = (*collectionRepository)(nil)
)
