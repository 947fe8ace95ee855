package mercadopago_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/service/mercadopago"
)

func makeRequest() domain.PreferenceRequest {
	return domain.PreferenceRequest{
		Items: []domain.PreferenceItem{
			{ID: "taza", Title: "Taza", Quantity: 1, UnitPrice: 2400, CurrencyID: "ARS"},
		},
		ExternalReference: "kiki-1700000000000",
	}
}

func TestCreatePreference_Success(t *testing.T) {
	var gotAuth string
	var gotBody domain.PreferenceRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(domain.Preference{
			ID:               "pref-1",
			InitPoint:        "https://mp.example/init",
			SandboxInitPoint: "https://mp.example/sandbox",
		})
	}))
	defer srv.Close()

	client := mercadopago.NewClient("secret-token", mercadopago.WithBaseURL(srv.URL))

	pref, err := client.CreatePreference(context.Background(), makeRequest())
	if err != nil {
		t.Fatal(err)
	}

	if pref.ID != "pref-1" || pref.RedirectURL() != "https://mp.example/init" {
		t.Errorf("unexpected preference: %+v", pref)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotBody.ExternalReference != "kiki-1700000000000" {
		t.Errorf("unexpected forwarded body: %+v", gotBody)
	}
}

func TestCreatePreference_EmptyItems(t *testing.T) {
	client := mercadopago.NewClient("secret-token")

	_, err := client.CreatePreference(context.Background(), domain.PreferenceRequest{})
	if !errors.Is(err, domain.ErrPreferenceItemsRequired) {
		t.Fatalf("expected ErrPreferenceItemsRequired, got %v", err)
	}
}

func TestCreatePreference_GatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid access token"}`))
	}))
	defer srv.Close()

	client := mercadopago.NewClient("bad-token", mercadopago.WithBaseURL(srv.URL))

	_, err := client.CreatePreference(context.Background(), makeRequest())
	if !errors.Is(err, domain.ErrPaymentGateway) {
		t.Fatalf("expected ErrPaymentGateway, got %v", err)
	}
}

func TestCreatePreference_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // закрываем заранее: любое обращение упадёт на connect

	client := mercadopago.NewClient("secret-token", mercadopago.WithBaseURL(srv.URL))

	_, err := client.CreatePreference(context.Background(), makeRequest())
	if !errors.Is(err, domain.ErrPaymentGateway) {
		t.Fatalf("expected ErrPaymentGateway, got %v", err)
	}
}

func TestCreatePreference_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := mercadopago.NewClient("secret-token", mercadopago.WithBaseURL(srv.URL))

	_, err := client.CreatePreference(context.Background(), makeRequest())
	if !errors.Is(err, domain.ErrPaymentGateway) {
		t.Fatalf("expected ErrPaymentGateway, got %v", err)
	}
}
