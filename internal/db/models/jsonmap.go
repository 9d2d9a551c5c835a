package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores a structured snapshot as a JSON column. It is used for
// the old/new value snapshots and metadata of audit log entries.
type JSONMap map[string]any

// Value implements driver.Valuer, serializing the map to JSON.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}

	return string(out), nil
}

// Scan implements sql.Scanner, deserializing a JSON column into the map.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte

	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}

	if len(data) == 0 {
		*m = nil
		return nil
	}

	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}

	return nil
}
