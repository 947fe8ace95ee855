package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

type createPreferenceRequest struct {
	Items []struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Quantity   int32  `json:"quantity"`
		UnitPrice  int64  `json:"unit_price"`
		CurrencyID string `json:"currency_id"`
		PictureURL string `json:"picture_url"`
	} `json:"items"`
	Payer *struct {
		Email string `json:"email"`
	} `json:"payer"`
}

// handleCreatePreference создаёт платёжную преференцию из произвольного
// набора позиций. back_urls и external_reference выставляет сервер.
func (s *Server) handleCreatePreference(w http.ResponseWriter, r *http.Request) {
	var body createPreferenceRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if len(body.Items) == 0 {
		s.writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	req := domain.PreferenceRequest{
		BackURLs:          s.backURLs,
		ExternalReference: fmt.Sprintf("kiki-%d", time.Now().UnixMilli()),
	}
	for _, item := range body.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		currency := item.CurrencyID
		if currency == "" {
			currency = "ARS"
		}
		req.Items = append(req.Items, domain.PreferenceItem{
			ID:         item.ID,
			Title:      item.Title,
			Quantity:   quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: currency,
			PictureURL: item.PictureURL,
		})
	}
	if body.Payer != nil && body.Payer.Email != "" {
		req.Payer = &domain.Payer{Email: body.Payer.Email}
	}

	pref, err := s.gateway.CreatePreference(r.Context(), req)
	if err != nil {
		s.logger.WithError(err).Error("preference creation failed")
		s.writeError(w, http.StatusBadGateway, "payment gateway unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, pref)
}
