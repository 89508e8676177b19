package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muckraker/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:    srv.URL,
		APIKey:     "secret",
		Retries:    retries,
		RetryBase:  time.Millisecond,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestCandidatesByRace(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2012/races/CA/senate.json", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		fmt.Fprint(w, `{"status":"OK","results":[
			{"candidate":{"id":"/candidates/S2CA00001.json","name":"Jane Roe","party":"dem"}},
			{"candidate":{"id":"S2CA00002","name":" John Doe ","party":"REP"}}
		]}`)
	}, 0)

	got, err := c.CandidatesByRace(context.Background(), 2012, "CA", core.Senate)
	require.NoError(t, err)
	assert.Equal(t, []core.Candidate{
		{ID: "S2CA00001", Name: "Jane Roe", Party: core.Democrat, State: "CA", Chamber: core.Senate},
		{ID: "S2CA00002", Name: "John Doe", Party: core.Republican, State: "CA", Chamber: core.Senate},
	}, got)
}

func TestIndependentExpenditures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2012/candidates/H2CA01118/independent_expenditures.json", r.URL.Path)
		fmt.Fprint(w, `{"status":"OK","results":[
			{"candidate":"/candidates/H2CA01118.json","payee":"Acme, LLC","amount":100.5,"support_or_oppose":"S","date":"2012-10-01","committee_name":"PAC One","purpose":"TV ads"},
			{"candidate":"","payee":"Beta Corp","amount":"30","support_or_oppose":"O","date":"not a date"}
		]}`)
	}, 0)

	got, err := c.IndependentExpenditures(context.Background(), "H2CA01118", 2012)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, core.Expenditure{
		CandidateID: "H2CA01118",
		Payee:       "Acme, LLC",
		Amount:      core.Money{Cents: 10050},
		Stance:      core.Support,
		Year:        2012,
		Committee:   "PAC One",
		Purpose:     "TV ads",
		Date:        time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC),
	}, got[0])

	assert.Equal(t, "H2CA01118", got[1].CandidateID)
	assert.Equal(t, core.Oppose, got[1].Stance)
	assert.Equal(t, int64(3000), got[1].Amount.Cents)
	assert.True(t, got[1].Date.IsZero())
}

func TestIndependentExpenditures_BadStance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","results":[{"payee":"X","amount":1,"support_or_oppose":"?"}]}`)
	}, 0)

	_, err := c.IndependentExpenditures(context.Background(), "H1", 2012)
	assert.ErrorIs(t, err, core.ErrInvalidStance)
}

func TestHTTPErrorWithoutRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 0)

	_, err := c.CandidatesByRace(context.Background(), 2012, "CA", core.House)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetriesTemporaryFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"status":"OK","results":[]}`)
	}, 3)

	got, err := c.CandidatesByRace(context.Background(), 2012, "CA", core.House)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}, 3)

	_, err := c.CandidatesByRace(context.Background(), 2012, "CA", core.House)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStatusNotOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ERROR","results":[]}`)
	}, 0)

	_, err := c.CandidatesByRace(context.Background(), 2012, "CA", core.House)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ERROR", apiErr.Status)
}

func TestMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":`)
	}, 0)

	_, err := c.CandidatesByRace(context.Background(), 2012, "CA", core.House)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","results":[]}`)
	}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CandidatesByRace(ctx, 2012, "CA", core.House)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{40, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt, time.Second); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestCandidateID(t *testing.T) {
	tests := map[string]string{
		"H2CA01118":                  "H2CA01118",
		"/candidates/H2CA01118.json": "H2CA01118",
		" S2CA00001 ":                "S2CA00001",
		"":                           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CandidateID(in), in)
	}
}
