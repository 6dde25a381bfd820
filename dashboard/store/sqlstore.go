package store

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"referral_platform/dashboard/schema"

	"gorm.io/gorm"
)

// SqlStore implements Store over a relational database through gorm. Tables
// are addressed by name and rows handled as untyped maps so that the same
// interface can be served by the file-backed fallback.
type SqlStore struct {
	db *gorm.DB
}

func NewSqlStore(db *gorm.DB) *SqlStore {
	return &SqlStore{db: db}
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func (s *SqlStore) Insert(table string, rec Record) (int64, Record, error) {
	if err := checkIdent(table); err != nil {
		return 0, nil, err
	}

	now := time.Now().UTC()

	stored := make(Record, len(rec)+3)
	for k, v := range rec {
		stored[k] = v
	}
	stored["created_at"] = now
	stored["updated_at"] = now

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var maxId int64
		result := txn.Table(table).Select("coalesce(max(id), 0)").Scan(&maxId)
		if result.Error != nil {
			return schema.NewDbError("finding max id for insert", result.Error)
		}

		stored["id"] = maxId + 1

		result = txn.Table(table).Create(map[string]any(stored))
		if result.Error != nil {
			return schema.NewDbError("inserting record", result.Error)
		}

		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	return stored["id"].(int64), stored, nil
}

func (s *SqlStore) UpdateWhere(table string, patch Record, cond *Cond) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}

	updates := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	query := s.db.Table(table)
	if cond != nil {
		if err := checkIdent(cond.Key); err != nil {
			return 0, err
		}
		query = query.Where(fmt.Sprintf("%v = ?", cond.Key), cond.Value)
	} else {
		query = query.Where("1 = 1")
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return 0, schema.NewDbError("updating records", result.Error)
	}

	return result.RowsAffected, nil
}

func (s *SqlStore) DeleteWhere(table string, cond *Cond) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}

	query := s.db.Table(table)
	if cond != nil {
		if err := checkIdent(cond.Key); err != nil {
			return 0, err
		}
		query = query.Where(fmt.Sprintf("%v = ?", cond.Key), cond.Value)
	} else {
		query = query.Where("1 = 1")
	}

	result := query.Delete(nil)
	if result.Error != nil {
		return 0, schema.NewDbError("deleting records", result.Error)
	}

	return result.RowsAffected, nil
}

func (s *SqlStore) GetOne(table string, cond *Cond) (Record, error) {
	rows, err := s.GetMany(table, cond, Options{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (s *SqlStore) GetMany(table string, cond *Cond, opts Options) ([]Record, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}

	query := s.db.Table(table)
	if cond != nil {
		if err := checkIdent(cond.Key); err != nil {
			return nil, err
		}
		query = query.Where(fmt.Sprintf("%v = ?", cond.Key), cond.Value)
	}

	if opts.OrderBy != "" {
		if err := checkIdent(opts.OrderBy); err != nil {
			return nil, err
		}
		direction := "asc"
		if opts.Descending {
			direction = "desc"
		}
		query = query.Order(fmt.Sprintf("%v %v", opts.OrderBy, direction))
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var rows []map[string]any
	result := query.Find(&rows)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, schema.NewDbError("retrieving records", result.Error)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record(row))
	}
	return records, nil
}
