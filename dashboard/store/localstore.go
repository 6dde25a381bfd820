package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// LocalStore is the durable local fallback: every table is a JSON array of
// records inside a single file, scanned linearly. It exists so the dashboard
// stays usable when the relational backend is unreachable, and it is the only
// store in demo deployments. All access is serialized behind one mutex; the
// store is process-wide shared state with last-write-wins semantics.
type LocalStore struct {
	mu     sync.Mutex
	path   string
	tables map[string][]Record
}

// OpenLocalStore loads the store file at path, creating it with the given
// seed tables if it does not exist yet. Seeding happens once; later opens
// keep whatever the file holds.
func OpenLocalStore(path string, seed map[string][]Record) (*LocalStore, error) {
	s := &LocalStore{path: path, tables: map[string][]Record{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		for name, records := range seed {
			s.tables[name] = append([]Record{}, records...)
		}
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading local store file: %w", err)
	}

	if err := json.Unmarshal(data, &s.tables); err != nil {
		return nil, fmt.Errorf("error parsing local store file: %w", err)
	}

	return s, nil
}

func (s *LocalStore) flush() error {
	data, err := json.Marshal(s.tables)
	if err != nil {
		return fmt.Errorf("error serializing local store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("error creating local store dir: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("error writing local store file: %w", err)
	}

	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *LocalStore) Insert(table string, rec Record) (int64, Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxId int64
	for _, existing := range s.tables[table] {
		if id, err := Id(existing); err == nil && id > maxId {
			maxId = id
		}
	}

	now := timestamp()
	stored := make(Record, len(rec)+3)
	for k, v := range rec {
		stored[k] = v
	}
	stored["id"] = maxId + 1
	stored["created_at"] = now
	stored["updated_at"] = now

	s.tables[table] = append(s.tables[table], stored)

	if err := s.flush(); err != nil {
		return 0, nil, err
	}

	return maxId + 1, stored, nil
}

func (s *LocalStore) UpdateWhere(table string, patch Record, cond *Cond) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for i, rec := range s.tables[table] {
		if !matches(rec, cond) {
			continue
		}
		updated := make(Record, len(rec)+len(patch))
		for k, v := range rec {
			updated[k] = v
		}
		for k, v := range patch {
			updated[k] = v
		}
		updated["updated_at"] = timestamp()
		s.tables[table][i] = updated
		affected++
	}

	if affected == 0 {
		return 0, nil
	}

	if err := s.flush(); err != nil {
		return 0, err
	}

	return affected, nil
}

func (s *LocalStore) DeleteWhere(table string, cond *Cond) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tables[table][:0:0]
	var removed int64
	for _, rec := range s.tables[table] {
		if matches(rec, cond) {
			removed++
		} else {
			kept = append(kept, rec)
		}
	}

	if removed == 0 {
		return 0, nil
	}

	s.tables[table] = kept

	if err := s.flush(); err != nil {
		return 0, err
	}

	return removed, nil
}

func (s *LocalStore) GetOne(table string, cond *Cond) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.tables[table] {
		if matches(rec, cond) {
			return rec, nil
		}
	}

	return nil, ErrNotFound
}

func (s *LocalStore) GetMany(table string, cond *Cond, opts Options) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []Record
	for _, rec := range s.tables[table] {
		if matches(rec, cond) {
			records = append(records, rec)
		}
	}

	if opts.OrderBy != "" {
		direction := 1
		if opts.Descending {
			direction = -1
		}
		sort.SliceStable(records, func(i, j int) bool {
			return compareValues(records[i][opts.OrderBy], records[j][opts.OrderBy])*direction < 0
		})
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(records) {
			return nil, nil
		}
		records = records[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}

	return records, nil
}

func matches(rec Record, cond *Cond) bool {
	if cond == nil || cond.Key == "" {
		return true
	}
	return valuesEqual(rec[cond.Key], cond.Value)
}

// valuesEqual compares loosely across the numeric types the JSON and SQL
// paths produce for the same logical value.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if na, aok := asFloat(a); aok {
		if nb, bok := asFloat(b); bok {
			return na == nb
		}
		return false
	}

	if sa, aok := a.(string); aok {
		sb, bok := b.(string)
		return bok && sa == sb
	}

	if ba, aok := a.(bool); aok {
		bb, bok := b.(bool)
		return bok && ba == bb
	}

	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compareValues reports -1/0/1 ordering. RFC 3339 timestamps order correctly
// as plain strings.
func compareValues(a, b any) int {
	if na, aok := asFloat(a); aok {
		if nb, bok := asFloat(b); bok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}

	if sa, aok := a.(string); aok {
		if sb, bok := b.(string); bok {
			return strings.Compare(sa, sb)
		}
	}

	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
