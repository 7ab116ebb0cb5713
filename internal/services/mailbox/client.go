package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ledgerflow/internal/services"
	"ledgerflow/internal/txn"
)

const defaultHTTPTimeout = 10 * time.Second

// Config captures the runtime settings for the mailbox search API.
type Config struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

// EmailContext is the purchase-confirmation context found for a
// transaction.
type EmailContext struct {
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
}

// Client queries the mailbox search API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a mailbox client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIToken:       strings.TrimSpace(cfg.APIToken),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type searchResponse struct {
	Messages []EmailContext `json:"messages"`
}

// Lookup searches for an email matching the transaction's description,
// amount, and date. A nil context with nil error means no match was
// found; errors come back wrapped as transient so callers can treat
// them as a degraded lookup rather than a failed item.
func (c *Client) Lookup(ctx context.Context, item txn.Transaction) (*EmailContext, error) {
	if c.cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "enrich", "lookup", "base url required", nil)
	}

	query := url.Values{}
	query.Set("q", item.DisplayDescription())
	query.Set("amount", item.Amount.StringFixed(2))
	query.Set("date", item.Date.Format("2006-01-02"))
	query.Set("limit", "1")
	endpoint := c.cfg.BaseURL + "/v1/messages/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "enrich", "lookup", "new request", err)
	}
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "enrich", "lookup", "http error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrTransient, "enrich", "lookup",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "enrich", "lookup", "decode response", err)
	}
	if len(parsed.Messages) == 0 {
		return nil, nil
	}
	found := parsed.Messages[0]
	found.Subject = strings.TrimSpace(found.Subject)
	found.Snippet = strings.TrimSpace(found.Snippet)
	if found.Subject == "" && found.Snippet == "" {
		return nil, nil
	}
	return &found, nil
}

// HealthCheck verifies the mailbox API answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.BaseURL == "" {
		return services.Wrap(services.ErrConfiguration, "enrich", "health", "base url required", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/health", nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "enrich", "health", "new request", err)
	}
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "enrich", "health", "http error", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "enrich", "health",
			fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}
