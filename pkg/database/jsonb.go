package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB scans a jsonb column into T. A SQL NULL leaves T at its zero value and
// marks the wrapper invalid, which the card_info and data columns rely on.
type JSONB[T any] struct {
	Data  T
	Valid bool
}

func NewJSONB[T any](data T) JSONB[T] {
	return JSONB[T]{Data: data, Valid: true}
}

func (p *JSONB[T]) Scan(src any) error {
	if src == nil {
		var zero T
		p.Data = zero
		p.Valid = false
		return nil
	}

	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONB.Scan: expected []byte, got %T", src)
	}

	if err := json.Unmarshal(b, &p.Data); err != nil {
		return err
	}
	p.Valid = true
	return nil
}

func (p JSONB[T]) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}
	return json.Marshal(p.Data)
}

func (p *JSONB[T]) GetValue() T {
	return p.Data
}
