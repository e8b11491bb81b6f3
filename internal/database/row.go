package database

import (
	"fmt"
	"strconv"
	"time"
)

// Row is one result row keyed by column name. Values are normalized: integers
// are int64, byte slices are strings and timestamps are UTC time.Time when the
// driver reports them as such.
type Row map[string]any

// Int64 returns the column as an int64.
func (r Row) Int64(col string) (int64, error) {
	switch v := r[col].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("column %s: null", col)
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

// String returns the column as a string; NULL becomes "".
func (r Row) String(col string) string {
	s, _ := r.NullString(col)
	return s
}

// NullString returns the column as a string and whether it was non-NULL.
func (r Row) NullString(col string) (string, bool) {
	switch v := r[col].(type) {
	case nil:
		return "", false
	case string:
		return v, true
	default:
		return fmt.Sprint(v), true
	}
}

// timeLayouts covers SQLite's CURRENT_TIMESTAMP text and RFC 3339 variants.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

// Time returns the column as a UTC time.
func (r Row) Time(col string) (time.Time, error) {
	switch v := r[col].(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("column %s: unrecognized time %q", col, v)
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case nil:
		return time.Time{}, fmt.Errorf("column %s: null", col)
	default:
		return time.Time{}, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}

func normalizeRow(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		row[k] = normalizeValue(v)
	}
	return row
}
