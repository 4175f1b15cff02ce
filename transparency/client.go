package transparency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/resilience"
	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

const defaultBaseURL = "https://api.portaldatransparencia.gov.br/api-de-dados"

// Client is the Transparency Data Client boundary: GetContracts against
// Portal da Transparência, rate-limited and circuit-broken.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    resilience.CircuitBreaker
	maxRetries int
	logger     logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the upstream base URL, used in tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithMaxRetries overrides the retry budget for 429/5xx responses.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger attaches a logger.
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client rate-limited to requestsPerMinute and
// circuit-broken against sustained upstream failure.
func NewClient(apiKey string, requestsPerMinute int, opts ...ClientOption) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
		breaker:    resilience.NewHTTPBreaker(resilience.DefaultParams("transparency-api")),
		maxRetries: 3,
		logger:     &logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetContracts fetches contracts matching filter. A 404 yields an empty
// slice (no data, not an error). A 429 backs off per Retry-After and
// retries; other 4xx/5xx retry with exponential backoff up to
// maxRetries before surfacing a RetryableExternal error.
func (c *Client) GetContracts(ctx context.Context, filter Filter) ([]ContractRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	var records []ContractRecord
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.breaker.Execute(ctx, func() error {
			resp, retryAfter, httpErr := c.doRequest(ctx, filter)
			if httpErr != nil {
				return httpErr
			}
			if retryAfter > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(retryAfter):
				}
				return sentinelerrors.ErrRateLimited
			}
			records = resp
			return nil
		})

		if err == nil {
			return records, nil
		}
		lastErr = err
		c.logger.Warn("transparency request attempt failed", map[string]interface{}{
			"attempt": attempt, "error": err.Error(),
		})
	}

	return nil, sentinelerrors.New("transparency.GetContracts", "retryable_external", sentinelerrors.ErrMaxRetriesExceeded).WithID(lastErr.Error())
}

// doRequest performs one HTTP round-trip. It returns (nil, 0, nil) on
// 404 (no data), (nil, retryAfter, nil) on 429, or (records, 0, nil) on
// success.
func (c *Client) doRequest(ctx context.Context, filter Filter) ([]ContractRecord, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(filter), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("chave-api-dados", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var records []ContractRecord
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			return nil, 0, fmt.Errorf("decode contracts: %w", err)
		}
		return records, 0, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, retryAfter, nil
	default:
		return nil, 0, fmt.Errorf("%w: status %d", sentinelerrors.ErrRequestFailed, resp.StatusCode)
	}
}

func (c *Client) buildURL(filter Filter) string {
	q := url.Values{}
	if filter.DataInicial != "" {
		q.Set("dataInicial", filter.DataInicial)
	}
	if filter.DataFinal != "" {
		q.Set("dataFinal", filter.DataFinal)
	}
	if filter.CodigoOrgao != "" {
		q.Set("codigoOrgao", filter.CodigoOrgao)
	}
	if filter.Modalidade != "" {
		q.Set("modalidadeLicitacao", filter.Modalidade)
	}
	if filter.Pagina > 0 {
		q.Set("pagina", strconv.Itoa(filter.Pagina))
	}
	return c.baseURL + "/contratos?" + q.Encode()
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		return time.Until(when)
	}
	return 5 * time.Second
}
