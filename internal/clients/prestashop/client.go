package prestashop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"prestashop-importer-service/internal/clients"
)

// Config holds the connection parameters for one PrestaShop 1.6 webservice
type Config struct {
	BaseURL string // normalized, ends with /api
	WSKey   string

	// Collection listings can be very slow on large shops; detail and
	// auxiliary calls are expected to answer quickly.
	ListTimeout   time.Duration
	DetailTimeout time.Duration
	AuxTimeout    time.Duration

	RequestsPerSecond float64

	// Retry policy for detail and auxiliary calls
	RetryAttempts    int
	RetryBackoffStep time.Duration
}

func (c *Config) applyDefaults() {
	if c.ListTimeout == 0 {
		c.ListTimeout = 300 * time.Second
	}
	if c.DetailTimeout == 0 {
		c.DetailTimeout = 60 * time.Second
	}
	if c.AuxTimeout == 0 {
		c.AuxTimeout = 30 * time.Second
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryBackoffStep == 0 {
		c.RetryBackoffStep = 2 * time.Second
	}
}

// Client talks to a PrestaShop 1.6 XML webservice. Credentials travel as the
// ws_key query parameter on every authenticated request.
type Client struct {
	config      *Config
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	retrier     *clients.Retrier
	logger      *logrus.Entry
}

// NewClient creates a webservice client for one backend
func NewClient(config *Config, logger *logrus.Logger) *Client {
	config.applyDefaults()
	return &Client{
		config: config,
		// Timeouts are applied per call through the request context.
		httpClient:  &http.Client{},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		retrier: clients.NewRetrier(&clients.RetryConfig{
			MaxAttempts: config.RetryAttempts,
			BackoffStep: config.RetryBackoffStep,
			Retryable:   IsRetryable,
		}),
		logger: logger.WithField("component", "prestashop_client"),
	}
}

// FetchList fetches a resource collection, e.g. "customers" or "products".
// Not retried: a failing list call fails the whole run for that entity.
func (c *Client) FetchList(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	u := c.resourceURL(resource, "", params)
	body, _, err := c.get(ctx, u, true, c.config.ListTimeout)
	return body, err
}

// FetchDetail fetches a single resource record, retrying transient transport
// failures with linear backoff. HTTP status errors are terminal immediately.
func (c *Client) FetchDetail(ctx context.Context, resource, id string) ([]byte, error) {
	return c.fetchWithRetry(ctx, c.resourceURL(resource, id, nil), c.config.DetailTimeout,
		fmt.Sprintf("%s/%s detail", resource, id))
}

// FetchAux fetches auxiliary data (stock, addresses, category details) on the
// short timeout, with the same retry policy as detail calls.
func (c *Client) FetchAux(ctx context.Context, resource string, params url.Values) ([]byte, error) {
	return c.fetchWithRetry(ctx, c.resourceURL(resource, "", params), c.config.AuxTimeout,
		resource+" aux")
}

// FetchAuxDetail fetches a single auxiliary record on the short timeout.
func (c *Client) FetchAuxDetail(ctx context.Context, resource, id string) ([]byte, error) {
	return c.fetchWithRetry(ctx, c.resourceURL(resource, id, nil), c.config.AuxTimeout,
		fmt.Sprintf("%s/%s detail", resource, id))
}

// FetchImage downloads an image. withAuth appends the ws_key credential,
// needed for the /api/images endpoint but not for direct /img/ URLs.
func (c *Client) FetchImage(ctx context.Context, rawURL string, withAuth bool) ([]byte, string, error) {
	return c.get(ctx, rawURL, withAuth, c.config.AuxTimeout)
}

// FetchURL performs a raw GET on the short timeout. Used by connection
// diagnostics.
func (c *Client) FetchURL(ctx context.Context, rawURL string, withAuth bool) ([]byte, string, error) {
	return c.get(ctx, rawURL, withAuth, c.config.AuxTimeout)
}

// BaseURL returns the normalized API base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// StoreURL returns the shop root, without the /api suffix
func (c *Client) StoreURL() string {
	return strings.TrimSuffix(c.config.BaseURL, "/api")
}

// DirectImageURL builds the unauthenticated image URL for a product's cover,
// splitting the image id into one path segment per digit the way the shop's
// image filesystem lays files out.
func (c *Client) DirectImageURL(imageID string) string {
	var sb strings.Builder
	for _, d := range imageID {
		sb.WriteByte('/')
		sb.WriteRune(d)
	}
	return fmt.Sprintf("%s/img/p%s/%s.jpg", c.StoreURL(), sb.String(), imageID)
}

// APIImageURL builds the authenticated fallback image endpoint
func (c *Client) APIImageURL(productID, imageID string) string {
	return fmt.Sprintf("%s/images/products/%s/%s", c.config.BaseURL, productID, imageID)
}

func (c *Client) fetchWithRetry(ctx context.Context, rawURL string, timeout time.Duration, operation string) ([]byte, error) {
	var body []byte
	result := c.retrier.Do(ctx, operation, func(ctx context.Context) error {
		var err error
		body, _, err = c.get(ctx, rawURL, true, timeout)
		return err
	})
	if result.LastError != nil {
		if result.Attempts > 1 {
			c.logger.WithFields(logrus.Fields{
				"operation": operation,
				"attempts":  result.Attempts,
			}).Warn("Fetch failed after retries")
		}
		return nil, result.LastError
	}
	return body, nil
}

func (c *Client) resourceURL(resource, id string, params url.Values) string {
	u := c.config.BaseURL + "/" + resource
	if id != "" {
		u += "/" + id
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// get performs one HTTP GET and classifies every failure into the client's
// error taxonomy. Returns body and Content-Type on success.
func (c *Client) get(ctx context.Context, rawURL string, withAuth bool, timeout time.Duration) ([]byte, string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	reqURL := rawURL
	if withAuth {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		reqURL = rawURL + sep + "ws_key=" + url.QueryEscape(c.config.WSKey)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building request for %s: %w", redact(rawURL), err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", classifyTransport(redact(rawURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", classifyTransport(redact(rawURL), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &HTTPStatusError{
			Code: resp.StatusCode,
			URL:  redact(rawURL),
			Body: truncate(string(body), 500),
		}
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func classifyTransport(redactedURL string, err error) error {
	kind := ErrConnection
	var nerr net.Error
	if (errors.As(err, &nerr) && nerr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	return &TransportError{Kind: kind, URL: redactedURL, Err: err}
}

// redact strips the query string so credentials never reach logs or errors
func redact(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
