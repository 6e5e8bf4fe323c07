package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// wordsResponse is the body returned by GET /v1/number-to-words/{amount}.
type wordsResponse struct {
	Words string `json:"words"`
}

// WordsClient converts amounts through a remote number-to-words endpoint. Any
// deployment of this API can serve as the remote; the client is used when
// WORDS_SERVICE_URL is set. Calls go through a circuit breaker so an
// unreachable peer fails fast.
type WordsClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewWordsClient(baseURL string, timeout time.Duration, breaker *CircuitBreaker) *WordsClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultCBConfig())
	}
	return &WordsClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// Breaker exposes the client's circuit breaker for health reporting.
func (c *WordsClient) Breaker() *CircuitBreaker { return c.breaker }

// AmountInWords asks the remote service to spell out amount.
func (c *WordsClient) AmountInWords(ctx context.Context, amount decimal.Decimal) (string, error) {
	var words string
	err := c.breaker.Execute(func() error {
		var err error
		words, err = c.fetch(ctx, amount)
		return err
	})
	return words, err
}

func (c *WordsClient) fetch(ctx context.Context, amount decimal.Decimal) (string, error) {
	endpoint := c.baseURL + "/v1/number-to-words/" + url.PathEscape(amount.StringFixed(2))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("words: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("words: service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("words: service returned %d", resp.StatusCode)
	}

	var result wordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("words: decode response: %w", err)
	}
	if result.Words == "" {
		return "", errors.New("words: empty response")
	}
	return result.Words, nil
}
