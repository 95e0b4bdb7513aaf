package snapstore

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAssignsStoreID(t *testing.T) {
	db := openTestDB(t)
	id1, err := db.StoreID()
	if err != nil {
		t.Fatalf("StoreID: %v", err)
	}
	if id1 == "" {
		t.Fatal("expected non-empty store id")
	}

	id2, err := db.StoreID()
	if err != nil {
		t.Fatalf("StoreID second call: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("store id changed across calls: %q != %q", id1, id2)
	}
}

func TestPutGetRevisionRecord(t *testing.T) {
	db := openTestDB(t)

	rec := RevisionRecord{
		Version:     1,
		BaseVersion: 0,
		CommittedAt: time.Unix(1700000000, 0).UTC(),
		EntryCount:  3,
		Digest:      Digest([]byte("revision bytes")),
	}
	if err := db.PutRevisionRecord(rec); err != nil {
		t.Fatalf("PutRevisionRecord: %v", err)
	}

	got, err := db.GetRevisionRecord(1)
	if err != nil {
		t.Fatalf("GetRevisionRecord: %v", err)
	}
	if got.Version != rec.Version || got.BaseVersion != rec.BaseVersion || got.EntryCount != rec.EntryCount {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
	if got.Digest != rec.Digest {
		t.Fatal("digest mismatch after round-trip")
	}
}

func TestListRevisionRecords(t *testing.T) {
	db := openTestDB(t)

	for v := int32(0); v < 3; v++ {
		rec := RevisionRecord{Version: v, BaseVersion: v - 1, EntryCount: uint64(v)}
		if v == 0 {
			rec.BaseVersion = -1
		}
		if err := db.PutRevisionRecord(rec); err != nil {
			t.Fatalf("PutRevisionRecord(%d): %v", v, err)
		}
	}

	all, err := db.ListRevisionRecords()
	if err != nil {
		t.Fatalf("ListRevisionRecords: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
}

func TestGetRevisionRecordMissing(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetRevisionRecord(99); err == nil {
		t.Fatal("expected error for unindexed revision")
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	a := Digest([]byte("hello"))
	b := Digest([]byte("hello"))
	if a != b {
		t.Fatal("Digest should be deterministic for identical input")
	}
	c := Digest([]byte("world"))
	if a == c {
		t.Fatal("Digest should differ for different input")
	}
}
