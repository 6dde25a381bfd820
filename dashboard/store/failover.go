package store

import (
	"errors"
	"log/slog"
)

// Failover serves reads from the primary store and silently degrades to the
// local fallback when the primary fails. A read never surfaces a
// remote-unavailable error to the caller; mutations do, since falling back
// on a write would fork the dataset.
type Failover struct {
	primary  Store
	fallback Store
}

func NewFailover(primary, fallback Store) *Failover {
	return &Failover{primary: primary, fallback: fallback}
}

func (s *Failover) Insert(table string, rec Record) (int64, Record, error) {
	return s.primary.Insert(table, rec)
}

func (s *Failover) UpdateWhere(table string, patch Record, cond *Cond) (int64, error) {
	return s.primary.UpdateWhere(table, patch, cond)
}

func (s *Failover) DeleteWhere(table string, cond *Cond) (int64, error) {
	return s.primary.DeleteWhere(table, cond)
}

func (s *Failover) GetOne(table string, cond *Cond) (Record, error) {
	rec, err := s.primary.GetOne(table, cond)
	if err != nil && !errors.Is(err, ErrNotFound) {
		slog.Warn("primary store read failed, using fallback", "table", table, "error", err)
		return s.fallback.GetOne(table, cond)
	}
	return rec, err
}

func (s *Failover) GetMany(table string, cond *Cond, opts Options) ([]Record, error) {
	records, err := s.primary.GetMany(table, cond, opts)
	if err != nil {
		slog.Warn("primary store read failed, using fallback", "table", table, "error", err)
		return s.fallback.GetMany(table, cond, opts)
	}
	return records, nil
}
