package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/pricing"
	"github.com/vladislavdragonenkov/kiki/internal/service/cart"
)

type cartLineView struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Image               string `json:"image,omitempty"`
	Color               string `json:"color,omitempty"`
	UnitPrice           int64  `json:"unitPrice"`
	DiscountedUnitPrice *int64 `json:"discountedUnitPrice,omitempty"`
	Quantity            int32  `json:"quantity"`
	LineTotal           int64  `json:"lineTotal"`
}

type cartView struct {
	Lines        []cartLineView `json:"lines"`
	TotalItems   int32          `json:"totalItems"`
	Subtotal     int64          `json:"subtotal"`
	FreeShipping bool           `json:"freeShipping"`
	JustAdded    bool           `json:"justAdded"`
}

func newCartView(store *cart.Store) cartView {
	snapshot := store.Snapshot()

	view := cartView{
		Lines:        make([]cartLineView, 0, len(snapshot.Lines)),
		TotalItems:   snapshot.TotalItems(),
		Subtotal:     snapshot.Subtotal(),
		FreeShipping: pricing.FreeShipping(snapshot.Subtotal()),
		JustAdded:    store.JustAdded(),
	}
	for _, line := range snapshot.Lines {
		view.Lines = append(view.Lines, cartLineView{
			ID:                  line.ID,
			Name:                line.Name,
			Image:               line.Image,
			Color:               line.Color,
			UnitPrice:           line.UnitPrice,
			DiscountedUnitPrice: line.DiscountedUnitPrice,
			Quantity:            line.Quantity,
			LineTotal:           line.LineTotal(),
		})
	}
	return view
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newCartView(s.session(r).Cart()))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	store := s.session(r).Cart()
	store.Clear()
	s.writeJSON(w, http.StatusOK, newCartView(store))
}

type addCartItemRequest struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var body addCartItemRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	product, err := s.products.Get(body.ID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		s.logger.WithError(err).Error("failed to get product for cart")
		s.writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	store := s.session(r).Cart()
	store.AddOne(cart.Item{
		ID:        product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Image:     product.Image,
		Color:     body.Color,
	})
	if s.metrics != nil {
		s.metrics.RecordCartAdd()
	}

	s.writeJSON(w, http.StatusOK, newCartView(store))
}

type addCollectionRequest struct {
	DiscountFraction float64 `json:"discountFraction"`
}

// handleAddCollection добавляет все товары коллекции одним действием со
// скидкой коллекции. Товары, отсутствующие в каталоге, молча пропускаются.
func (s *Server) handleAddCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.collections.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			s.writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		s.logger.WithError(err).Error("failed to get collection for cart")
		s.writeError(w, http.StatusInternalServerError, "failed to get collection")
		return
	}

	var body addCollectionRequest
	if r.ContentLength > 0 {
		if !s.decodeJSON(w, r, &body) {
			return
		}
	}

	items := make([]cart.Item, 0, len(collection.ProductIDs))
	for _, productID := range collection.ProductIDs {
		product, err := s.products.Get(productID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			s.logger.WithError(err).Error("failed to get collection product")
			s.writeError(w, http.StatusInternalServerError, "failed to get collection products")
			return
		}
		items = append(items, cart.Item{
			ID:        product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Image:     product.Image,
		})
	}

	store := s.session(r).Cart()
	store.AddMany(items, body.DiscountFraction)
	if s.metrics != nil {
		s.metrics.RecordCartBulkAdd()
	}

	s.writeJSON(w, http.StatusOK, newCartView(store))
}

type setQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

func (s *Server) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var body setQuantityRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	store := s.session(r).Cart()
	store.SetQuantity(chi.URLParam(r, "id"), body.Quantity)
	s.writeJSON(w, http.StatusOK, newCartView(store))
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	store := s.session(r).Cart()
	store.Remove(chi.URLParam(r, "id"))
	if s.metrics != nil {
		s.metrics.RecordCartRemoval()
	}
	s.writeJSON(w, http.StatusOK, newCartView(store))
}
