package googleauth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
	"github.com/vladislavdragonenkov/kiki/internal/service/googleauth"
)

func TestExchange_Success(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{
			"sub": "google-123",
			"name": "Valentina García",
			"email": "valentina@example.com",
			"picture": "https://example.com/avatar.png"
		}`))
	}))
	defer srv.Close()

	client := googleauth.NewClient(googleauth.WithUserinfoURL(srv.URL))

	identity, err := client.Exchange(context.Background(), "access-token")
	if err != nil {
		t.Fatal(err)
	}

	if identity.ID != "google-123" || identity.Name != "Valentina García" {
		t.Errorf("unexpected identity: %+v", identity)
	}
	if identity.Email != "valentina@example.com" {
		t.Errorf("unexpected email: %q", identity.Email)
	}
	if gotAuth != "Bearer access-token" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
}

func TestExchange_EmptyToken(t *testing.T) {
	client := googleauth.NewClient()

	if _, err := client.Exchange(context.Background(), ""); !errors.Is(err, domain.ErrIdentityExchange) {
		t.Fatalf("expected ErrIdentityExchange, got %v", err)
	}
}

func TestExchange_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := googleauth.NewClient(googleauth.WithUserinfoURL(srv.URL))

	if _, err := client.Exchange(context.Background(), "expired"); !errors.Is(err, domain.ErrIdentityExchange) {
		t.Fatalf("expected ErrIdentityExchange, got %v", err)
	}
}

func TestExchange_EmptySubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Anonima"}`))
	}))
	defer srv.Close()

	client := googleauth.NewClient(googleauth.WithUserinfoURL(srv.URL))

	if _, err := client.Exchange(context.Background(), "token"); !errors.Is(err, domain.ErrIdentityExchange) {
		t.Fatalf("expected ErrIdentityExchange for empty sub, got %v", err)
	}
}
