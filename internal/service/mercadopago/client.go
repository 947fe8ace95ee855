// Пакет mercadopago реализует клиента платёжного шлюза: создание платёжной
// преференции и получение URL редиректа на оплату.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/kiki/internal/domain"
)

const (
	// DefaultBaseURL — боевой API шлюза.
	DefaultBaseURL = "https://api.mercadopago.com"

	preferencesPath   = "/checkout/preferences"
	defaultHTTPTimeout = 10 * time.Second
)

// Client — HTTP-клиент платёжного шлюза.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *log.Entry
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithBaseURL переопределяет адрес API (для sandbox и тестов).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient подменяет http.Client (для тестов).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient создаёт клиента с access-токеном аккаунта продавца.
func NewClient(accessToken string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = log.WithField("component", "mercadopago")
	}
	return c
}

// CreatePreference создаёт преференцию. Ошибки сети и не-2xx ответы
// оборачиваются в ErrPaymentGateway: для вызывающего это одно пользовательское
// сообщение и возможность повторить.
func (c *Client) CreatePreference(ctx context.Context, req domain.PreferenceRequest) (domain.Preference, error) {
	if len(req.Items) == 0 {
		return domain.Preference{}, domain.ErrPreferenceItemsRequired
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.Preference{}, fmt.Errorf("marshal preference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+preferencesPath, bytes.NewReader(body))
	if err != nil {
		return domain.Preference{}, fmt.Errorf("build preference request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Preference{}, fmt.Errorf("%w: %v", domain.ErrPaymentGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Тело ответа идёт только в лог: наружу уходит общая ошибка шлюза.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WithFields(log.Fields{
			"status": resp.StatusCode,
			"body":   string(snippet),
		}).Warn("payment gateway rejected preference")
		return domain.Preference{}, fmt.Errorf("%w: status %d", domain.ErrPaymentGateway, resp.StatusCode)
	}

	var pref domain.Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return domain.Preference{}, fmt.Errorf("%w: decode response: %v", domain.ErrPaymentGateway, err)
	}

	c.logger.WithFields(log.Fields{
		"preference_id":      pref.ID,
		"external_reference": req.ExternalReference,
	}).Info("payment preference created")

	return pref, nil
}

var _ domain.PaymentGateway = (*Client)(nil)
