package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// JSONStore persists a document to a file as relaxed MongoDB Extended JSON,
// so bson field tags (and ObjectIDs, dates) round-trip exactly as they would
// in the database.
type JSONStore struct {
	mu       sync.RWMutex
	filePath string
}

// NewJSONStore creates a new JSON store at the specified path
func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	return &JSONStore{
		filePath: filepath.Join(dataDir, filename),
	}, nil
}

func (s *JSONStore) Path() string { return s.filePath }

// Load decodes the file into doc. A missing or empty file leaves doc untouched.
func (s *JSONStore) Load(doc interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return bson.UnmarshalExtJSON(raw, false, doc)
}

// Save writes doc to a temp file and renames it over the target.
func (s *JSONStore) Save(doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
	if err != nil {
		return err
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, raw, 0644); err != nil {
		os.Remove(tempFile)
		return err
	}
	return os.Rename(tempFile, s.filePath)
}
