package store

import (
	"path/filepath"
	"testing"
)

func TestLocalStoreInsertAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, err := OpenLocalStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	id, rec, err := s.Insert("things", Record{"name": "first", "count": 3})
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	if rec["created_at"] == nil || rec["updated_at"] == nil {
		t.Fatal("expected timestamps to be stamped")
	}

	id2, _, err := s.Insert("things", Record{"name": "second"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 != 2 {
		t.Fatalf("expected id 2, got %d", id2)
	}

	found, err := s.GetOne("things", Eq("name", "first"))
	if err != nil {
		t.Fatal(err)
	}
	if Int(found, "count") != 3 {
		t.Fatalf("invalid record %v", found)
	}

	if _, err := s.GetOne("things", Eq("name", "missing")); err != ErrNotFound {
		t.Fatal("expected ErrNotFound")
	}
	if _, err := s.GetOne("no_such_table", nil); err != ErrNotFound {
		t.Fatal("expected ErrNotFound for unknown table")
	}
}

func TestLocalStoreIdReuseAfterDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, err := OpenLocalStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"a", "b", "c"} {
		if _, _, err := s.Insert("things", Record{"name": name}); err != nil {
			t.Fatal(err)
		}
	}

	// Ids come from max(id)+1, so deleting the highest row makes its id
	// eligible for reuse.
	if _, err := s.DeleteWhere("things", Eq("id", 3)); err != nil {
		t.Fatal(err)
	}

	id, _, err := s.Insert("things", Record{"name": "d"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 3 {
		t.Fatalf("expected id 3, got %d", id)
	}
}

func TestLocalStoreUpdateAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, err := OpenLocalStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.Insert("things", Record{"name": "a", "count": 1}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Insert("things", Record{"name": "a", "count": 2}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Insert("things", Record{"name": "b", "count": 3}); err != nil {
		t.Fatal(err)
	}

	affected, err := s.UpdateWhere("things", Record{"count": 10}, Eq("name", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 affected, got %d", affected)
	}

	// Zero matches is not an error.
	affected, err = s.UpdateWhere("things", Record{"count": 0}, Eq("name", "z"))
	if err != nil || affected != 0 {
		t.Fatalf("expected no-op update, got %d, %v", affected, err)
	}

	removed, err := s.DeleteWhere("things", Eq("name", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	removed, err = s.DeleteWhere("things", Eq("name", "z"))
	if err != nil || removed != 0 {
		t.Fatalf("expected no-op delete, got %d, %v", removed, err)
	}

	remaining, err := s.GetMany("things", nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || Str(remaining[0], "name") != "b" {
		t.Fatalf("invalid remaining records %v", remaining)
	}
}

func TestLocalStoreOrderingAndPaging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, err := OpenLocalStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, count := range []int{5, 1, 3, 2, 4} {
		if _, _, err := s.Insert("things", Record{"count": count}); err != nil {
			t.Fatal(err)
		}
	}

	asc, err := s.GetMany("things", nil, Options{OrderBy: "count"})
	if err != nil {
		t.Fatal(err)
	}
	for i, rec := range asc {
		if Int(rec, "count") != int64(i+1) {
			t.Fatalf("bad ascending order at %d: %v", i, asc)
		}
	}

	desc, err := s.GetMany("things", nil, Options{OrderBy: "count", Descending: true, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(desc) != 2 || Int(desc[0], "count") != 5 || Int(desc[1], "count") != 4 {
		t.Fatalf("bad descending page %v", desc)
	}

	page, err := s.GetMany("things", nil, Options{OrderBy: "count", Offset: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || Int(page[0], "count") != 4 {
		t.Fatalf("bad offset page %v", page)
	}

	empty, err := s.GetMany("things", nil, Options{Offset: 10})
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty page, got %v, %v", empty, err)
	}
}

func TestLocalStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")

	seed := map[string][]Record{
		"things": {{"id": 1, "name": "seeded"}},
	}

	s, err := OpenLocalStore(path, seed)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Insert("things", Record{"name": "added"}); err != nil {
		t.Fatal(err)
	}

	// Reopening must read the file, not the seed.
	reopened, err := OpenLocalStore(path, map[string][]Record{
		"things": {{"id": 99, "name": "should_not_appear"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	records, err := reopened.GetMany("things", nil, Options{OrderBy: "id"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || Str(records[0], "name") != "seeded" || Str(records[1], "name") != "added" {
		t.Fatalf("invalid reopened records %v", records)
	}
}

func TestSeedTables(t *testing.T) {
	seed, err := SeedTables()
	if err != nil {
		t.Fatal(err)
	}

	if len(seed["users"]) == 0 || len(seed["referral_links"]) == 0 {
		t.Fatalf("seed data missing expected tables: %v", len(seed))
	}

	path := filepath.Join(t.TempDir(), "records.json")
	s, err := OpenLocalStore(path, seed)
	if err != nil {
		t.Fatal(err)
	}

	link, err := s.GetOne("referral_links", Eq("affiliate_id", "demo123abc"))
	if err != nil {
		t.Fatal(err)
	}
	if Int(link, "clicks") <= 0 {
		t.Fatalf("invalid seeded link %v", link)
	}
}
