package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ---------------------------------------------------------------------------
// Store creation
// ---------------------------------------------------------------------------

func TestNewBoltStore_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer s.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("database file is empty")
	}
}

func TestBoltStore_MetaWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	first, err := s.Meta()
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	s.Close()

	time.Sleep(10 * time.Millisecond)

	s2, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	second, _ := s2.Meta()

	if first.Version != boltFormatVersion {
		t.Errorf("Version = %d, want %d", first.Version, boltFormatVersion)
	}
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Error("reopening rewrote vault meta")
	}
}

// ---------------------------------------------------------------------------
// Vault collection
// ---------------------------------------------------------------------------

func TestBoltStore_LoadEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty collection, got %d", len(records))
	}
}

func TestBoltStore_SaveLoadPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(sampleRecords()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s2, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	got, err := s2.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := sampleRecords()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBoltStore_CorruptDocument(t *testing.T) {
	s := newTestStore(t)

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVault).Put(keyRecords, []byte("{not json"))
	})
	if err != nil {
		t.Fatal(err)
	}

	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty collection, got %d", len(records))
	}
}

func TestBoltStore_Update(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(sampleRecords()); err != nil {
		t.Fatal(err)
	}

	err := s.Update(func(records []Record) ([]Record, error) {
		return records[1:], nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	records, _ := s.Load()
	if len(records) != 1 || records[0].Username != "bob" {
		t.Fatalf("unexpected records after update: %+v", records)
	}

	boom := errors.New("boom")
	if err := s.Update(func([]Record) ([]Record, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	if err := s.Update(func([]Record) ([]Record, error) { return nil, ErrSkipSave }); err != nil {
		t.Fatalf("Update with ErrSkipSave = %v", err)
	}

	records, _ = s.Load()
	if len(records) != 1 {
		t.Fatalf("failed update changed the collection: %+v", records)
	}
}

// ---------------------------------------------------------------------------
// Second-factor secret
// ---------------------------------------------------------------------------

func TestBoltStore_Secret(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.Get(); err != nil || ok {
		t.Fatalf("Get before Put = ok:%v err:%v", ok, err)
	}
	if err := s.Put("enc-secret"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get()
	if err != nil || !ok || got != "enc-secret" {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}
}
