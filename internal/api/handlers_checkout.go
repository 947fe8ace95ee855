package api

import (
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/service/checkout"
)

type checkoutFormView struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DNI          string `json:"dni"`
	Phone        string `json:"phone"`
	Province     string `json:"province"`
	City         string `json:"city"`
	Address      string `json:"address"`
	PostalCode   string `json:"postalCode"`
	Floor        string `json:"floor"`
	Carrier      string `json:"carrier"`
	DeliveryType string `json:"deliveryType"`
}

type checkoutStateView struct {
	Step           int               `json:"step"`
	StepName       string            `json:"stepName"`
	Form           checkoutFormView  `json:"form"`
	FieldErrors    map[string]string `json:"fieldErrors"`
	Quote          checkout.Quote    `json:"quote"`
	ConfirmMessage string            `json:"confirmMessage,omitempty"`
}

func newCheckoutStateView(ctrl *checkout.Controller) checkoutStateView {
	form := ctrl.Form()
	fieldErrors := ctrl.FieldErrors()
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}
	return checkoutStateView{
		Step:     int(ctrl.Step()),
		StepName: ctrl.Step().String(),
		Form: checkoutFormView{
			FirstName:    form.FirstName,
			LastName:     form.LastName,
			DNI:          form.DNI,
			Phone:        form.Phone,
			Province:     form.Province,
			City:         form.City,
			Address:      form.Address,
			PostalCode:   form.PostalCode,
			Floor:        form.Floor,
			Carrier:      string(form.Carrier),
			DeliveryType: string(form.DeliveryType),
		},
		FieldErrors:    fieldErrors,
		Quote:          ctrl.CurrentQuote(),
		ConfirmMessage: ctrl.ConfirmMessage(),
	}
}

func (s *Server) handleBeginCheckout(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.session(r).BeginCheckout()
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoginRequired):
			s.writeError(w, http.StatusUnauthorized, "login required")
		case errors.Is(err, domain.ErrCartEmpty):
			s.writeError(w, http.StatusConflict, "cart is empty")
		default:
			s.logger.WithError(err).Error("failed to begin checkout")
			s.writeError(w, http.StatusInternalServerError, "failed to begin checkout")
		}
		return
	}
	s.writeJSON(w, http.StatusOK, newCheckoutStateView(ctrl))
}

func (s *Server) handleCheckoutState(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.session(r).Checkout()
	if err != nil {
		s.writeError(w, http.StatusNotFound, "checkout is not started")
		return
	}
	s.writeJSON(w, http.StatusOK, newCheckoutStateView(ctrl))
}

type setFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleCheckoutSetField(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.session(r).Checkout()
	if err != nil {
		s.writeError(w, http.StatusNotFound, "checkout is not started")
		return
	}

	var body setFieldRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	ctrl.SetField(body.Field, body.Value)
	s.writeJSON(w, http.StatusOK, newCheckoutStateView(ctrl))
}

func (s *Server) handleCheckoutNext(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.session(r).Checkout()
	if err != nil {
		s.writeError(w, http.StatusNotFound, "checkout is not started")
		return
	}

	if err := ctrl.Next(); err != nil {
		// 422 вместе с актуальным состоянием: клиенту нужны per-field ошибки.
		s.writeJSON(w, http.StatusUnprocessableEntity, newCheckoutStateView(ctrl))
		return
	}
	s.writeJSON(w, http.StatusOK, newCheckoutStateView(ctrl))
}

func (s *Server) handleCheckoutBack(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.session(r).Checkout()
	if err != nil {
		s.writeError(w, http.StatusNotFound, "checkout is not started")
		return
	}

	ctrl.Back()
	s.writeJSON(w, http.StatusOK, newCheckoutStateView(ctrl))
}

type confirmResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

func (s *Server) handleCheckoutConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	ctrl, err := sess.Checkout()
	if err != nil {
		s.writeError(w, http.StatusNotFound, "checkout is not started")
		return
	}

	redirectURL, err := sess.ConfirmCheckout(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrStepBlocked) {
			s.writeError(w, http.StatusConflict, "checkout is not on the review step")
			return
		}
		message := ctrl.ConfirmMessage()
		if message == "" {
			message = "payment gateway unavailable"
		}
		s.writeError(w, http.StatusBadGateway, message)
		return
	}

	s.writeJSON(w, http.StatusOK, confirmResponse{RedirectURL: redirectURL})
}
