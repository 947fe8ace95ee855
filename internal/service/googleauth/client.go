// Пакет googleauth обменивает OAuth access-токен, полученный popup-флоу
// витрины, на профиль пользователя. Токен уже проверен провайдером;
// собственной валидации подписи на этой границе нет.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

const (
	// DefaultUserinfoURL — endpoint профиля Google OAuth2.
	DefaultUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	defaultHTTPTimeout = 5 * time.Second
)

// Client запрашивает userinfo по access-токену.
type Client struct {
	userinfoURL string
	httpClient  *http.Client
	logger      *log.Entry
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithUserinfoURL переопределяет endpoint (для тестов).
func WithUserinfoURL(url string) ClientOption {
	return func(c *Client) { c.userinfoURL = url }
}

// WithHTTPClient подменяет http.Client (для тестов).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient создаёт клиента identity-провайдера.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		userinfoURL: DefaultUserinfoURL,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = log.WithField("component", "googleauth")
	}
	return c
}

// Exchange возвращает профиль {sub, name, email, picture}, смэппленный на
// внутренний Identity, или ErrIdentityExchange.
func (c *Client) Exchange(ctx context.Context, accessToken string) (domain.Identity, error) {
	if accessToken == "" {
		return domain.Identity{}, domain.ErrIdentityExchange
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrIdentityExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("userinfo request rejected")
		return domain.Identity{}, fmt.Errorf("%w: status %d", domain.ErrIdentityExchange, resp.StatusCode)
	}

	var payload struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: decode userinfo: %v", domain.ErrIdentityExchange, err)
	}
	if payload.Sub == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty subject", domain.ErrIdentityExchange)
	}

	return domain.Identity{
		ID:      payload.Sub,
		Name:    payload.Name,
		Email:   payload.Email,
		Picture: payload.Picture,
	}, nil
}

var _ domain.IdentityProvider = (*Client)(nil)
