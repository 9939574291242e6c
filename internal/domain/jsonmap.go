package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONMap is a custom type for storing loosely structured JSON data in a
// text column. It implements sql.Scanner and driver.Valuer to convert
// between Go's map[string]any and the database representation.
type JSONMap map[string]any

// Scan implements the sql.Scanner interface.
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for JSONMap")
	}

	if len(data) == 0 {
		*j = JSONMap{}
		return nil
	}

	return json.Unmarshal(data, j)
}

// Value implements the driver.Valuer interface.
func (j JSONMap) Value() (driver.Value, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(j))
}
