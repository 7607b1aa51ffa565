// Package yahoo provides a client for the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/strategy-cli/internal/resilience"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoData is returned when the API has no price history for a symbol.
var ErrNoData = eris.New("no price data")

// IsNoData reports whether err is (or wraps) ErrNoData.
func IsNoData(err error) bool {
	return eris.Is(err, ErrNoData)
}

// Client defines the chart operations.
type Client interface {
	// Chart fetches daily bars for symbol over rangeSpec (e.g. "1y") at
	// the given interval (e.g. "1d").
	Chart(ctx context.Context, symbol, rangeSpec, interval string) (*Chart, error)
}

// Chart is the parsed price history for one symbol.
type Chart struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	ExchangeName       string  `json:"exchange_name"`
	RegularMarketPrice float64 `json:"regular_market_price"`
	Bars               []Bar   `json:"bars"`
}

// Closes returns the close of every bar, oldest first.
func (c *Chart) Closes() []float64 {
	out := make([]float64, len(c.Bars))
	for i, b := range c.Bars {
		out[i] = b.Close
	}
	return out
}

// Bar is one OHLCV observation. Bars with a null close are dropped.
type Bar struct {
	Time     time.Time `json:"time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithBackoff sets the retry policy for transient failures.
func WithBackoff(b resilience.Backoff) Option {
	return func(c *httpClient) {
		c.backoff = b
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	backoff resilience.Backoff
}

// NewClient creates a chart API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		backoff: resilience.DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Chart(ctx context.Context, symbol, rangeSpec, interval string) (*Chart, error) {
	if symbol == "" {
		return nil, eris.New("yahoo: empty symbol")
	}

	q := url.Values{}
	q.Set("range", rangeSpec)
	q.Set("interval", interval)
	q.Set("includeAdjustedClose", "true")
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	b := c.backoff
	if b.OnRetry == nil {
		b.OnRetry = resilience.LogRetry(symbol)
	}
	body, err := resilience.Retry(ctx, b, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, reqURL)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "yahoo: chart %s", symbol)
	}

	chart, err := parseChart(body)
	if err != nil {
		return nil, eris.Wrapf(err, "yahoo: chart %s", symbol)
	}
	return chart, nil
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "yahoo: rate limiter")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: create request")
	}
	// The API rejects requests without a browser-like user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(ErrNoData, "yahoo: status 404: %s", apiErrorDescription(body))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("yahoo: status %d: %s", resp.StatusCode, truncate(body, 200)), resp.StatusCode)
	default:
		return nil, eris.Errorf("yahoo: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func parseChart(body []byte) (*Chart, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "yahoo: unmarshal chart")
	}
	if e := resp.Chart.Error; e != nil {
		return nil, eris.Wrapf(ErrNoData, "yahoo: %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, eris.Wrap(ErrNoData, "yahoo: empty result")
	}

	r := resp.Chart.Result[0]
	chart := &Chart{
		Symbol:             r.Meta.Symbol,
		Currency:           r.Meta.Currency,
		ExchangeName:       r.Meta.ExchangeName,
		RegularMarketPrice: r.Meta.RegularMarketPrice,
	}
	if len(r.Indicators.Quote) == 0 {
		return chart, nil
	}

	quote := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	for i, ts := range r.Timestamp {
		closeV := at(quote.Close, i)
		if closeV == nil {
			continue
		}
		bar := Bar{
			Time:     time.Unix(ts, 0).UTC(),
			Open:     deref(at(quote.Open, i)),
			High:     deref(at(quote.High, i)),
			Low:      deref(at(quote.Low, i)),
			Close:    *closeV,
			AdjClose: *closeV,
		}
		if a := at(adj, i); a != nil {
			bar.AdjClose = *a
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = *v
		}
		chart.Bars = append(chart.Bars, bar)
	}
	return chart, nil
}

func at[T any](s []*T, i int) *T {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func apiErrorDescription(body []byte) string {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Chart.Error != nil {
		return resp.Chart.Error.Description
	}
	return truncate(body, 200)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
