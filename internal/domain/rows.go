package domain

import (
	"encoding/json"
	"fmt"
)

// gateway-owned columns never sent on upsert
var managedColumns = []string{"id", "created_at", "updated_at"}

// ToFields encodes an entity into upsert fields using its json tags.
func ToFields(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, col := range managedColumns {
		delete(fields, col)
	}
	return fields, nil
}

// DecodeRow decodes a gateway row into dst.
func DecodeRow(row Row, dst any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row %s: %w", row.ID(), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode row %s: %w", row.ID(), err)
	}
	return nil
}

// DecodeRows decodes every row into a T.
func DecodeRows[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := DecodeRow(row, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
