package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"
)

// Record captures the outcome of one completed patch session for the journal.
// This struct is designed to be serializable for auditing across runs.
type Record struct {
	Path      string    `json:"path"`      // target file
	Checksum  string    `json:"checksum"`  // sha256 of the file content after the session
	Migration string    `json:"migration"` // hash of the migration definition that ran
	Applied   []string  `json:"applied"`   // names of rules that fired
	Skipped   int       `json:"skipped"`   // count of skipped outcomes
	DryRun    bool      `json:"dry_run"`   // true when nothing was written
	Timestamp time.Time `json:"timestamp"`
}

// Checksum returns the hex sha256 of content, as stored in Record.Checksum.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SaveToFile serializes records to a file as indented JSON.
func SaveToFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// LoadFromFile deserializes records from a JSON file. A missing file is not
// an error; it yields an empty journal.
func LoadFromFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var records []Record
	dec := json.NewDecoder(f)
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}
