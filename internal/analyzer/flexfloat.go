package analyzer

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexFloat decodes a JSON number that the model may also render as a
// quoted string ("7.5") or omit. Unparseable values stay absent.
type flexFloat struct {
	value *float64
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}

	raw = strings.Trim(raw, `"`)
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	f.value = &parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f flexFloat) MarshalJSON() ([]byte, error) {
	if f.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.value)
}

func (f flexFloat) ptr() *float64 {
	return f.value
}
