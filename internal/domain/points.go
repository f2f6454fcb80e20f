package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Points is a decimal score that remembers the exact text it was read from,
// so "1.50" is displayed as "1.50" and never as a float approximation.
type Points struct {
	raw   string
	value decimal.Decimal
}

// ParsePoints parses decimal text without losing precision.
func ParsePoints(raw string) (Points, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return Points{}, fmt.Errorf("parse points %q: %w", raw, err)
	}
	return Points{raw: raw, value: value}, nil
}

// MustPoints is ParsePoints for literals.
func MustPoints(raw string) Points {
	p, err := ParsePoints(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original text.
func (p Points) String() string {
	if p.raw == "" {
		return p.value.String()
	}
	return p.raw
}

// Decimal exposes the parsed value for arithmetic.
func (p Points) Decimal() decimal.Decimal {
	return p.value
}

// IsZero compares numerically, so "0", "0.0" and "0.00" are all zero.
func (p Points) IsZero() bool {
	return p.value.IsZero()
}

// Equal compares numerically.
func (p Points) Equal(other Points) bool {
	return p.value.Equal(other.value)
}

// Cmp compares numerically.
func (p Points) Cmp(other Points) int {
	return p.value.Cmp(other.value)
}

// MarshalJSON emits the original text as a JSON string.
func (p Points) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (p *Points) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Points{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParsePoints(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
