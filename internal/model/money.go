package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a monetary amount in hundredths of the currency unit.
// Storing money as an integer avoids the float rounding traps that a
// per-hour price multiplied by an hour count would otherwise hit.  On
// the wire the value is rendered as a plain decimal ("76.50"); parsing
// accepts both JSON numbers and numeric strings because the upstream
// resource catalog emits either form for pricePerHour.
type Cents int64

// ParseCents converts a decimal string such as "25.50", "25.5" or "25"
// into cents.  More than two fractional digits or a non-numeric input
// is an error.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse cents: empty value")
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("parse cents: %q has more than two fractional digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cents: %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cents: %q: %w", s, err)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Cents(v), nil
}

// String renders the amount as a decimal with two fractional digits.
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON emits the amount as a JSON number with two decimals so
// API clients see 76.50 rather than 7650.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts either a number (25.5) or a numeric string
// ("25.50").
func (c *Cents) UnmarshalJSON(data []byte) error {
	var raw json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = json.Number(s)
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseCents(raw.String())
	if err != nil {
		return err
	}
	*c = v
	return nil
}
