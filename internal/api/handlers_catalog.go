package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/version"
)

func (s *Server) handleBanner(w http.ResponseWriter, _ *http.Request) {
	v, commit, date := version.Info()
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": version.Service,
		"version": v,
		"commit":  commit,
		"date":    date,
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.URL.Query().Get("category"))
	if err != nil {
		s.logger.WithError(err).Error("failed to list products")
		s.writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	s.writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.products.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		s.logger.WithError(err).Error("failed to get product")
		s.writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleListCollections(w http.ResponseWriter, _ *http.Request) {
	collections, err := s.collections.List()
	if err != nil {
		s.logger.WithError(err).Error("failed to list collections")
		s.writeError(w, http.StatusInternalServerError, "failed to list collections")
		return
	}
	if collections == nil {
		collections = []domain.Collection{}
	}
	s.writeJSON(w, http.StatusOK, collections)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.collections.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			s.writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		s.logger.WithError(err).Error("failed to get collection")
		s.writeError(w, http.StatusInternalServerError, "failed to get collection")
		return
	}
	s.writeJSON(w, http.StatusOK, collection)
}
