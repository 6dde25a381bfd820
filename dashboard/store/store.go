// Package store provides table-like access to named collections of untyped
// records. Two implementations exist: a SQL-backed primary and a file-backed
// local fallback. Filtering is single-key equality only; every call site in
// the dashboard is an id/status/email lookup, so compound predicates are
// deliberately not supported.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Record is one row of a table. Values are JSON scalars; list-valued fields
// (permission sets, form fields) are stored as JSON-encoded strings inside
// the record, the same way the backing columns hold them.
type Record map[string]any

// Cond is a single-key equality condition. A nil *Cond matches everything.
type Cond struct {
	Key   string
	Value any
}

func Eq(key string, value any) *Cond {
	return &Cond{Key: key, Value: value}
}

type Options struct {
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

var ErrNotFound = errors.New("record not found")

type Store interface {
	// Insert assigns id = max(id)+1 (1 for an empty table), stamps
	// created_at/updated_at, and returns the id and stored record.
	Insert(table string, rec Record) (int64, Record, error)

	// UpdateWhere merges patch over every matching record and refreshes
	// updated_at. Zero matches is not an error.
	UpdateWhere(table string, patch Record, cond *Cond) (int64, error)

	// DeleteWhere removes every matching record.
	DeleteWhere(table string, cond *Cond) (int64, error)

	// GetOne returns the first match, or ErrNotFound. A nil condition
	// returns the first record in the table.
	GetOne(table string, cond *Cond) (Record, error)

	// GetMany filters by equality, orders by one field, then applies
	// offset/limit.
	GetMany(table string, cond *Cond, opts Options) ([]Record, error)
}

// Decode copies a record into a typed struct through its JSON form. Both
// backends produce records whose JSON encoding matches the schema structs,
// except that sqlite hands boolean columns back as integers; those are
// normalized against the target's bool fields before decoding.
func Decode(rec Record, out any) error {
	data, err := json.Marshal(coerceBools(rec, out))
	if err != nil {
		return fmt.Errorf("error encoding record: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error decoding record: %w", err)
	}
	return nil
}

// coerceBools converts numeric record values to true/false wherever the
// destination struct declares a bool field, leaving the input record
// untouched.
func coerceBools(rec Record, out any) Record {
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Pointer {
		return rec
	}
	t = t.Elem()
	if t.Kind() != reflect.Struct {
		return rec
	}

	var fixed Record
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() != reflect.Bool {
			continue
		}

		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}

		n, err := toInt64(rec[name])
		if err != nil {
			continue
		}

		if fixed == nil {
			fixed = make(Record, len(rec))
			for k, v := range rec {
				fixed[k] = v
			}
		}
		fixed[name] = n != 0
	}

	if fixed == nil {
		return rec
	}
	return fixed
}

// Id extracts the integer id from a record, tolerating the numeric types the
// two backends produce (int64 from SQL, float64 from JSON).
func Id(rec Record) (int64, error) {
	return toInt64(rec["id"])
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("value %v (%T) is not an integer", v, v)
	}
}

// Int reads a numeric field from a record, defaulting to 0 when absent.
func Int(rec Record, key string) int64 {
	n, err := toInt64(rec[key])
	if err != nil {
		return 0
	}
	return n
}

// Str reads a string field from a record, defaulting to "" when absent or
// null.
func Str(rec Record, key string) string {
	s, _ := rec[key].(string)
	return s
}
