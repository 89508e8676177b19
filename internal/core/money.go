// Package core provides money parsing and handling utilities.
//
// Amounts are carried as integer cents so that grouping and summing never
// drift. Conversion to float64 happens only at the DataSet boundary.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// The dot is the decimal separator. Commas are accepted only as thousands
// separators in the integer part and must group digits in threes. Half-up
// rounding applies on the third decimal place. Zero is a valid amount;
// negative values and malformed input are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("1,234.56") -> 123456, nil
//	ParseDecimalToCents("12,345") -> 1234500, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12,34") -> error (bad grouping)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart, err := stripThousands(parts[0])
	if err != nil {
		return 0, err
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// stripThousands removes comma separators from an integer part after checking
// that they split it into groups of three digits ("1,234,567").
func stripThousands(s string) (string, error) {
	if !strings.Contains(s, ",") {
		return s, nil
	}
	groups := strings.Split(s, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return "", ErrInvalidAmount
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", ErrInvalidAmount
		}
	}
	return strings.Join(groups, ""), nil
}

// Dollars returns the amount as a float64 for chart output.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount as a plain decimal ("150.25").
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (m Money) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	cents, err := ParseDecimalToCents(node.Value)
	if err != nil {
		return fmt.Errorf("amount %q: %w", node.Value, err)
	}
	m.Cents = cents
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimals; the provider
// has returned either over time.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		m.Cents = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	cents, err := ParseDecimalToCents(raw)
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw, err)
	}
	m.Cents = cents
	return nil
}
