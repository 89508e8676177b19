// Package http serves the chart page and the dataset JSON API.
//
// This file parses query strings and request bodies into query filters.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"muckraker/internal/query"
)

// maxBodyBytes bounds the JSON accepted by POST endpoints.
const maxBodyBytes = 1 << 16

// DatasetParams holds the parsed filter of a dataset request.
type DatasetParams struct {
	Filter query.PayeeFilter
}

// CacheKey identifies the result of kind under these params for one snapshot generation.
func (p DatasetParams) CacheKey(gen uint64, kind string) string {
	return strconv.FormatUint(gen, 10) + "|" + kind + "|" + string(p.Filter.Party) + "|" + string(p.Filter.Stance) + "|" + strconv.Itoa(p.Filter.Limit)
}

// ParseDatasetParams reads party, stance and limit from a query string.
// A missing limit falls back to defaultLimit.
func ParseDatasetParams(values url.Values, defaultLimit int) (DatasetParams, error) {
	limit := defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return DatasetParams{}, fmt.Errorf("invalid limit %q", v)
		}
		if n <= 0 {
			return DatasetParams{}, fmt.Errorf("limit must be positive, got %d", n)
		}
		limit = n
	}

	f, err := query.ParseFilter(values.Get("party"), values.Get("stance"), limit)
	if err != nil {
		return DatasetParams{}, err
	}
	return DatasetParams{Filter: f}, nil
}

// RefreshBody is the optional payload of POST /api/refresh.
type RefreshBody struct {
	RequestedBy string `json:"requested_by"`
}

// ParseRefreshBody decodes the body. An empty body is valid.
func ParseRefreshBody(r *http.Request) (RefreshBody, error) {
	var body RefreshBody
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return body, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return body, fmt.Errorf("decode body: %w", err)
	}
	body.RequestedBy = sanitizeInput(body.RequestedBy)
	return body, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
