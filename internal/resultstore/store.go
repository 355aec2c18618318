// Package resultstore persists raw lookup results, one JSON file per word
// per service. Records are write-once: a stored result is never overwritten,
// which is what makes reruns free of redundant API spend.
package resultstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Service identifies one of the two lookup backends.
type Service string

const (
	ServiceDictionary Service = "dictionary"
	ServiceThesaurus  Service = "thesaurus"
)

// Services lists all backends in the order they are fetched per word.
var Services = []Service{ServiceDictionary, ServiceThesaurus}

// Kind classifies a stored lookup outcome.
type Kind string

const (
	KindSuccess  Kind = "success"
	KindNotFound Kind = "not_found"
	KindError    Kind = "error"
)

// Record is the durable form of one lookup result.
type Record struct {
	Word        string          `json:"word"`
	Service     Service         `json:"service"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Detail      string          `json:"detail,omitempty"`
	StoredAt    time.Time       `json:"stored_at"`
}

var (
	// ErrAlreadyStored is returned by Write when a record for the same
	// (service, word) pair already exists.
	ErrAlreadyStored = errors.New("result already stored")
	// ErrNotStored is returned by Read when no record exists.
	ErrNotStored = errors.New("result not stored")
)

// Store is a file-backed result store rooted at a data directory, with one
// subdirectory per service.
type Store struct {
	rootDir string
}

func New(rootDir string) *Store {
	return &Store{rootDir: rootDir}
}

// EnsureDirectories creates the per-service subdirectories.
func (s *Store) EnsureDirectories() error {
	for _, service := range Services {
		if err := os.MkdirAll(filepath.Join(s.rootDir, string(service)), 0755); err != nil {
			return fmt.Errorf("os.MkdirAll(%s) > %w", service, err)
		}
	}
	return nil
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// sanitizeFilename maps a word to a filesystem-safe name. Apostrophes and
// other punctuation become underscores, matching the on-disk layout of
// existing data sets.
func sanitizeFilename(word string) string {
	return unsafeFilenameRe.ReplaceAllString(word, "_")
}

func (s *Store) filePath(service Service, word string) string {
	return filepath.Join(s.rootDir, string(service), sanitizeFilename(word)+".json")
}

// Exists reports whether a result for (service, word) was already durably
// written, whatever its kind.
func (s *Store) Exists(service Service, word string) bool {
	_, err := os.Stat(s.filePath(service, word))
	return err == nil
}

// Write atomically persists a record. The record is marshalled to a
// temporary file in the destination directory and renamed into place, so a
// crash mid-write never leaves a truncated record behind.
func (s *Store) Write(record Record) error {
	if s.Exists(record.Service, record.Word) {
		return fmt.Errorf("word %q, service %s: %w", record.Word, record.Service, ErrAlreadyStored)
	}
	if record.StoredAt.IsZero() {
		record.StoredAt = time.Now()
	}

	contents, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent > %w", err)
	}

	destination := s.filePath(record.Service, record.Word)
	temp, err := os.CreateTemp(filepath.Dir(destination), "."+filepath.Base(destination)+".tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp > %w", err)
	}
	if _, err := temp.Write(contents); err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return fmt.Errorf("temp.Write > %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(temp.Name())
		return fmt.Errorf("temp.Close > %w", err)
	}
	if err := os.Rename(temp.Name(), destination); err != nil {
		_ = os.Remove(temp.Name())
		return fmt.Errorf("os.Rename > %w", err)
	}
	return nil
}

// Read returns the stored record for (service, word), or ErrNotStored.
func (s *Store) Read(service Service, word string) (Record, error) {
	var record Record
	contents, err := os.ReadFile(s.filePath(service, word))
	if errors.Is(err, os.ErrNotExist) {
		return record, fmt.Errorf("word %q, service %s: %w", word, service, ErrNotStored)
	}
	if err != nil {
		return record, fmt.Errorf("os.ReadFile > %w", err)
	}
	if err := json.Unmarshal(contents, &record); err != nil {
		return record, fmt.Errorf("json.Unmarshal > %w", err)
	}
	return record, nil
}
