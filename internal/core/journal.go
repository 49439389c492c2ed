package core

import (
	"sync"

	"refan/internal/state"
)

// Store abstracts journal persistence for testability.
type Store interface {
	Load() ([]state.Record, error)
	Save([]state.Record) error
}

// Append loads the journal, replaces any earlier record for the same path,
// and saves.
func Append(st Store, rec state.Record) error {
	records, err := st.Load()
	if err != nil {
		return err
	}
	replaced := false
	for i, r := range records {
		if r.Path == rec.Path {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	return st.Save(records)
}

// FileStore implements Store using a JSON file.
type FileStore struct {
	File string
}

func NewFileStore(file string) *FileStore {
	return &FileStore{File: file}
}

func (fs *FileStore) Load() ([]state.Record, error) {
	return state.LoadFromFile(fs.File)
}

func (fs *FileStore) Save(records []state.Record) error {
	return state.SaveToFile(fs.File, records)
}

// InMemoryStore implements Store for testing (no disk I/O).
type InMemoryStore struct {
	mu      sync.Mutex
	records []state.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (ms *InMemoryStore) Load() ([]state.Record, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	// Return a copy to avoid mutation
	cpy := make([]state.Record, len(ms.records))
	copy(cpy, ms.records)
	return cpy, nil
}

func (ms *InMemoryStore) Save(records []state.Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	// Store a copy to avoid mutation
	cpy := make([]state.Record, len(records))
	copy(cpy, records)
	ms.records = cpy
	return nil
}
