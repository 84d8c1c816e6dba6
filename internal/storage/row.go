package storage

import (
	"fmt"
	"time"
)

// Row holds the column values of one result row, in select order.
type Row []any

func (r Row) value(i int) (any, error) {
	if i < 0 || i >= len(r) {
		return nil, fmt.Errorf("column %d out of range [0, %d)", i, len(r))
	}
	return r[i], nil
}

func (r Row) Int64(i int) (int64, error) {
	v, err := r.value(i)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int16:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("column %d: expected integer, got %T", i, v)
	}
}

// String returns "" for a NULL column.
func (r Row) String(i int) (string, error) {
	v, err := r.value(i)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("column %d: expected text, got %T", i, v)
	}
}

func (r Row) Time(i int) (time.Time, error) {
	v, err := r.value(i)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("column %d: expected timestamp, got %T", i, v)
	}
	return t, nil
}
