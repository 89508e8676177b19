// Package provider is the HTTP client for the ProPublica Campaign Finance API,
// the source of candidate rosters and independent expenditures.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"muckraker/internal/core"
	"muckraker/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.propublica.org/campaign-finance/v1"

	endpointRaces        = "races"
	endpointExpenditures = "independent_expenditures"

	maxBackoff = 30 * time.Second
)

var ErrMissingAPIKey = errors.New("missing provider API key")

// HTTPClient allows injecting a fake transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is returned for non-2xx responses and for payloads whose status is not OK.
type APIError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider request %s failed: %s", e.URL, e.Status)
}

// Temporary reports whether retrying the request could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Config struct {
	BaseURL string
	APIKey  string

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64

	// Retries is the number of extra attempts for temporary failures.
	// Zero fails on the first error.
	Retries   int
	RetryBase time.Duration

	HTTPClient HTTPClient
}

type Client struct {
	http      HTTPClient
	baseURL   string
	apiKey    string
	limiter   *rate.Limiter
	retries   int
	retryBase time.Duration
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid provider base URL %q: %w", base, err)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient()
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = time.Second
	}

	return &Client{
		http:      httpClient,
		baseURL:   base,
		apiKey:    cfg.APIKey,
		limiter:   rate.NewLimiter(limit, 1),
		retries:   cfg.Retries,
		retryBase: retryBase,
	}, nil
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 60 * time.Second,
	}
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Results []T    `json:"results"`
}

type raceResult struct {
	Candidate struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Party string `json:"party"`
	} `json:"candidate"`
}

type expenditureResult struct {
	Candidate       string     `json:"candidate"`
	Payee           string     `json:"payee"`
	Amount          core.Money `json:"amount"`
	SupportOrOppose string     `json:"support_or_oppose"`
	Date            string     `json:"date"`
	CommitteeName   string     `json:"committee_name"`
	Purpose         string     `json:"purpose"`
}

// CandidatesByRace lists the candidates running for one chamber in one state.
func (c *Client) CandidatesByRace(ctx context.Context, year int, state core.State, chamber core.Chamber) ([]core.Candidate, error) {
	u := fmt.Sprintf("%s/%d/races/%s/%s.json", c.baseURL, year, url.PathEscape(string(state)), url.PathEscape(string(chamber)))

	var env envelope[raceResult]
	if err := c.get(ctx, endpointRaces, u, &env); err != nil {
		return nil, err
	}

	candidates := make([]core.Candidate, 0, len(env.Results))
	for _, r := range env.Results {
		candidates = append(candidates, core.Candidate{
			ID:      CandidateID(r.Candidate.ID),
			Name:    strings.TrimSpace(r.Candidate.Name),
			Party:   core.Party(strings.ToUpper(strings.TrimSpace(r.Candidate.Party))),
			State:   state,
			Chamber: chamber,
		})
	}
	return candidates, nil
}

// IndependentExpenditures lists the expenditures for or against one candidate in a cycle.
func (c *Client) IndependentExpenditures(ctx context.Context, candidateID string, year int) ([]core.Expenditure, error) {
	u := fmt.Sprintf("%s/%d/candidates/%s/independent_expenditures.json", c.baseURL, year, url.PathEscape(candidateID))

	var env envelope[expenditureResult]
	if err := c.get(ctx, endpointExpenditures, u, &env); err != nil {
		return nil, err
	}

	expenditures := make([]core.Expenditure, 0, len(env.Results))
	for i, r := range env.Results {
		stance, err := core.ParseStance(r.SupportOrOppose)
		if err != nil {
			return nil, fmt.Errorf("candidate %s expenditure %d: %w", candidateID, i, err)
		}
		id := CandidateID(r.Candidate)
		if id == "" {
			id = candidateID
		}
		e := core.Expenditure{
			CandidateID: id,
			Payee:       strings.TrimSpace(r.Payee),
			Amount:      r.Amount,
			Stance:      stance,
			Year:        year,
			Committee:   strings.TrimSpace(r.CommitteeName),
			Purpose:     strings.TrimSpace(r.Purpose),
		}
		if d, err := time.Parse("2006-01-02", r.Date); err == nil {
			e.Date = d
		}
		expenditures = append(expenditures, e)
	}
	return expenditures, nil
}

// CandidateID extracts the bare id from the URI form the provider sometimes
// returns ("/candidates/H2CA01118.json" becomes "H2CA01118").
func CandidateID(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "/") && !strings.HasSuffix(raw, ".json") {
		return raw
	}
	return strings.TrimSuffix(path.Base(raw), ".json")
}

func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, endpoint, u, out)
		if err == nil || attempt >= c.retries || !retryable(err) {
			return err
		}

		wait := backoff(attempt, c.retryBase)
		slog.WarnContext(ctx, "Provider request failed, retrying",
			"url", u,
			"attempt", attempt+1,
			"wait", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) do(ctx context.Context, endpoint, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ProviderLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderRequests.WithLabelValues(endpoint, "http_error").Inc()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, URL: u}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("read response from %s: %w", u, err)
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("decode response from %s: %w", u, err)
	}
	if status.Status != "" && !strings.EqualFold(status.Status, "OK") {
		metrics.ProviderRequests.WithLabelValues(endpoint, "api_error").Inc()
		return &APIError{StatusCode: resp.StatusCode, Status: status.Status, URL: u}
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("decode response from %s: %w", u, err)
	}

	metrics.ProviderRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// backoff doubles the wait per attempt starting at base, capped at 30 seconds.
func backoff(attempt int, base time.Duration) time.Duration {
	if attempt > 16 {
		return maxBackoff
	}
	d := base << attempt
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// Transport failures: connection refused, resets, timeouts.
	return true
}
