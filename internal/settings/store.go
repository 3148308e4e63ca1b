package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	filePermissions = 0o600
	dirPermissions  = 0o750
	jsonIndent      = "  "
)

var (
	// ErrRead indicates the settings file could not be read or parsed.
	ErrRead = errors.New("settings read failed")
	// ErrWrite indicates the settings file could not be written.
	ErrWrite = errors.New("settings write failed")
)

// JSONStore loads and saves a Document as an indented JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the document. On any failure it returns an empty, usable
// document together with an error wrapping ErrRead.
func (s *JSONStore) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrRead, s.path, err)
	}

	doc, err := Decode(data)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrRead, s.path, err)
	}

	return doc, nil
}

// Save writes the document atomically, replacing the previous file.
func (s *JSONStore) Save(doc Document) error {
	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	dirErr := os.MkdirAll(filepath.Dir(s.path), dirPermissions)
	if dirErr != nil {
		return fmt.Errorf("%w: failed to create settings directory: %w", ErrWrite, dirErr)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()

	if writeErr == nil {
		writeErr = closeErr
	}

	if writeErr == nil {
		writeErr = os.Chmod(tmpName, filePermissions)
	}

	if writeErr == nil {
		writeErr = os.Rename(tmpName, s.path)
	}

	if writeErr != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, writeErr)
	}

	return nil
}

// Decode parses a flat JSON object. Numbers are kept as json.Number so
// their textual form survives a round trip.
func Decode(data []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	doc := Document{}

	err := decoder.Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if doc == nil {
		doc = Document{}
	}

	return doc, nil
}

// Encode renders the document as indented JSON.
func Encode(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}

	data, err := json.MarshalIndent(doc, "", jsonIndent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	return append(data, '\n'), nil
}
