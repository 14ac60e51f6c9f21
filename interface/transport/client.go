package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/airbusgeo/sentinelhub-batch-go/service"
	"github.com/airbusgeo/sentinelhub-batch-go/service/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Config holds the service endpoints and the OAuth2 client credentials.
// It is supplied by the caller and passed through untouched.
type Config struct {
	BaseURL      string // e.g. https://services.sentinel-hub.com
	TokenURL     string // OAuth2 token endpoint (session mode only)
	ClientID     string
	ClientSecret string
}

// Option configures a Client
type Option func(*Client)

// WithSession enables OAuth2 token and connection reuse across requests.
// Without it requests are sent unauthenticated.
func WithSession() Option {
	return func(c *Client) { c.useSession = true }
}

// WithRetries sets the number of retries on temporary errors
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithRetryDelay sets the base delay of the exponential backoff between retries
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// Client fetches JSON documents from the service. It raises on non-2xx
// responses; temporary failures (5xx, transient network errors) are retried
// here and only here.
type Client struct {
	cfg        Config
	hc         *http.Client
	useSession bool
	retries    int
	retryDelay time.Duration
}

// New creates a Client for the given service
func New(ctx context.Context, cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		hc:         &http.Client{Timeout: 2 * time.Minute},
		retries:    3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.useSession && cfg.TokenURL != "" {
		oc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.hc)
		c.hc = oc.Client(ctx)
	}
	return c
}

// BaseURL returns the service base url without a trailing slash
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/")
}

// FetchJSON performs one JSON request/response cycle against the service.
// A non-nil body is marshaled as the JSON request body; a 2xx response body
// is decoded into out when out is non-nil. 4xx responses are permanent
// errors carrying the status and response body.
func (c *Client) FetchJSON(ctx context.Context, method, url string, query neturl.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("FetchJSON.Marshal: %w", err)
		}
	}

	var respBody []byte
	var err error
	for i := 0; i <= c.retries; i++ {
		if d := time.Duration((1<<i)-1) * c.retryDelay; d > 0 { // Exponential backoff, starting at 0
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		}
		if respBody, err = c.do(ctx, method, url, query, payload); err == nil {
			break
		}
		if ctx.Err() != nil || !service.Temporary(err) {
			return err
		}
	}
	if err != nil {
		return err
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("FetchJSON.Unmarshal: %w (response: %s)", err, respBody)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, query neturl.Values, payload []byte) ([]byte, error) {
	if len(query) > 0 {
		url += "?" + query.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("transport.NewRequest: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	log.Logger(ctx).Sugar().Debugf("%s %s [%s]", method, url, requestID)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport.Do: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%s %s: %s (response: %s)", method, url, resp.Status, respBody)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, err
		}
		return nil, service.MakeTemporary(err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("transport.ReadAll: %w", readErr)
	}
	return respBody, nil
}
