package sanitize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?|-?\.\d+`)

// Amount is a lenient JSON number. It accepts numbers and strings such as
// "$1,299.00" or "4.5 stars". Anything else decodes as invalid, never as an error,
// so a single bad field does not reject the surrounding document.
type Amount struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			*a = Amount{Value: f, Valid: true}
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, ok := ParseAmount(s); ok {
			*a = Amount{Value: f, Valid: true}
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// Ptr returns the value as a pointer, nil when invalid.
func (a Amount) Ptr() *float64 {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

// NonNegative reports a valid amount that is zero or more.
func (a Amount) NonNegative() (float64, bool) {
	if !a.Valid || a.Value < 0 {
		return 0, false
	}
	return a.Value, true
}

// ParseAmount extracts the first number in s, ignoring currency symbols and
// thousands separators.
func ParseAmount(s string) (float64, bool) {
	m := numberPattern.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
