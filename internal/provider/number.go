package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Float decodes a JSON number or a numeric string. Sources disagree on which
// one they send, sometimes within the same payload. NaN and infinities are
// rejected.
type Float struct {
	Value float64
	Valid bool
}

func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = Float{}
		return nil
	}
	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		*f = Float{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("non-finite number %q", s)
	}
	*f = Float{Value: v, Valid: true}
	return nil
}

// FirstFloat returns the first valid value among keys in m.
func FirstFloat(m map[string]json.RawMessage, keys ...string) (float64, bool, error) {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var f Float
		if err := f.UnmarshalJSON(raw); err != nil {
			return 0, false, fmt.Errorf("%s: %w", k, err)
		}
		if f.Valid {
			return f.Value, true, nil
		}
	}
	return 0, false, nil
}
