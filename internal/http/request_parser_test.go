package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"muckraker/internal/core"
)

func TestParseDatasetParams(t *testing.T) {
	tests := []struct {
		name       string
		values     url.Values
		wantParty  core.Party
		wantStance core.Stance
		wantLimit  int
		wantErr    bool
	}{
		{
			name:      "defaults",
			values:    url.Values{},
			wantLimit: 10,
		},
		{
			name:       "all values provided",
			values:     url.Values{"party": {"dem"}, "stance": {"OPPOSE"}, "limit": {"3"}},
			wantParty:  core.Democrat,
			wantStance: core.Oppose,
			wantLimit:  3,
		},
		{
			name:       "provider stance code",
			values:     url.Values{"stance": {"s"}},
			wantStance: core.Support,
			wantLimit:  10,
		},
		{name: "non numeric limit", values: url.Values{"limit": {"ten"}}, wantErr: true},
		{name: "zero limit", values: url.Values{"limit": {"0"}}, wantErr: true},
		{name: "negative limit", values: url.Values{"limit": {"-2"}}, wantErr: true},
		{name: "unknown party", values: url.Values{"party": {"LIB"}}, wantErr: true},
		{name: "unknown stance", values: url.Values{"stance": {"neutral"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatasetParams(tt.values, 10)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Filter.Party != tt.wantParty {
				t.Errorf("Party = %q, want %q", got.Filter.Party, tt.wantParty)
			}
			if got.Filter.Stance != tt.wantStance {
				t.Errorf("Stance = %q, want %q", got.Filter.Stance, tt.wantStance)
			}
			if got.Filter.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", got.Filter.Limit, tt.wantLimit)
			}
		})
	}
}

func TestDatasetParams_CacheKey(t *testing.T) {
	a, _ := ParseDatasetParams(url.Values{"party": {"rep"}}, 10)
	b, _ := ParseDatasetParams(url.Values{"party": {"REP"}, "limit": {"10"}}, 10)
	if a.CacheKey(0, KindPayees) != b.CacheKey(0, KindPayees) {
		t.Errorf("equivalent filters must share a key: %q vs %q", a.CacheKey(0, KindPayees), b.CacheKey(0, KindPayees))
	}
	if a.CacheKey(0, KindPayees) == a.CacheKey(0, KindSupported) {
		t.Error("kinds must not share keys")
	}
	if a.CacheKey(0, KindPayees) == a.CacheKey(1, KindPayees) {
		t.Error("snapshot generations must not share keys")
	}
}

func TestParseRefreshBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "empty body", body: ""},
		{name: "whitespace body", body: "  \n"},
		{name: "requested by", body: `{"requested_by":"  ops\u0007 "}`, want: "ops"},
		{name: "malformed", body: `{"requested_by":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/refresh", strings.NewReader(tt.body))
			got, err := ParseRefreshBody(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got.RequestedBy != tt.want {
				t.Errorf("RequestedBy = %q, want %q", got.RequestedBy, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"line\nbreak", "linebreak"},
		{"tab\there", "tabhere"},
		{"del\x7f", "del"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
