package core

import (
	"path/filepath"
	"testing"
	"time"

	"refan/internal/state"
)

func sampleRecord(path, checksum string) state.Record {
	return state.Record{
		Path:      path,
		Checksum:  checksum,
		Migration: "abc123",
		Applied:   []string{"handler-fields"},
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestAppendInsertsAndReplaces(t *testing.T) {
	st := NewInMemoryStore()

	if err := Append(st, sampleRecord("a.go", "v1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(st, sampleRecord("b.go", "v1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// A later run over the same path replaces its record in place.
	if err := Append(st, sampleRecord("a.go", "v2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Path != "a.go" || records[0].Checksum != "v2" {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[1].Path != "b.go" {
		t.Errorf("records[1] = %+v", records[1])
	}
}

func TestInMemoryStoreCopies(t *testing.T) {
	st := NewInMemoryStore()
	in := []state.Record{sampleRecord("a.go", "v1")}
	if err := st.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the caller's slice after Save must not leak into the store.
	in[0].Checksum = "mutated"
	records, _ := st.Load()
	if records[0].Checksum != "v1" {
		t.Error("Save should store a copy")
	}

	// Mutating a loaded slice must not leak either.
	records[0].Checksum = "mutated"
	again, _ := st.Load()
	if again[0].Checksum != "v1" {
		t.Error("Load should return a copy")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "journal.json")
	st := NewFileStore(file)

	// A missing journal file reads as empty.
	records, err := st.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}

	want := sampleRecord("a.go", "v1")
	if err := Append(st, want); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err = st.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0]
	if got.Path != want.Path || got.Checksum != want.Checksum || got.Migration != want.Migration {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}
