package core

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"12,345", 1234500, true},
		{"1,234.56", 123456, true},
		{"1,234,567.5", 123456750, true},
		{"1,23", 0, false},
		{",123", 0, false},
		{"1234,567", 0, false},
		{"1.2,3", 0, false},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"1500000.5", 150000050, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 15025: "150.25", -150: "-1.50"}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSONAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "12,345", "c": null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Cents != 1250 || v.B.Cents != 1234500 || v.C.Cents != 0 {
		t.Fatalf("unexpected cents: %+v", v)
	}

	out, err := json.Marshal(Money{Cents: 1250})
	if err != nil || string(out) != "12.50" {
		t.Fatalf("marshal: %s (err=%v)", out, err)
	}
}

func TestMoneyYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Amount Money `yaml:"amount"`
	}{Money{Cents: 100050}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "amount: \"1000.50\"\n" {
		t.Fatalf("unexpected yaml: %q", out)
	}

	var back struct {
		Amount Money `yaml:"amount"`
	}
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Amount.Cents != 100050 {
		t.Fatalf("round trip lost cents: %d", back.Amount.Cents)
	}

	if err := yaml.Unmarshal([]byte("amount: [1, 2]\n"), &back); err == nil {
		t.Fatalf("expected error for non-scalar amount")
	}
}
