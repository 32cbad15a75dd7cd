package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kolah/apilens/internal/loader"
	"github.com/kolah/apilens/internal/render"
)

// Record is the persisted form of a session: enough to load it again after a
// restart.
type Record struct {
	ID           string            `json:"id"`
	Source       string            `json:"source"`
	SourceType   loader.SourceType `json:"sourceType"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastAccessed time.Time         `json:"lastAccessed"`
	OutputFormat render.Format     `json:"outputFormat"`
}

// Index stores the session records. Save replaces the whole set.
type Index interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
}

const indexFileName = "sessions.json"

// FileIndex keeps records as a JSON array in a single file.
type FileIndex struct {
	path string
}

// NewFileIndex stores records in sessions.json under dir.
func NewFileIndex(dir string) *FileIndex {
	return &FileIndex{path: filepath.Join(dir, indexFileName)}
}

func (f *FileIndex) Path() string {
	return f.path
}

func (f *FileIndex) Load(_ context.Context) ([]Record, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session index: %w", err)
	}
	return decodeRecords(data)
}

func (f *FileIndex) Save(_ context.Context, records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), indexFileName+".*")
	if err != nil {
		return fmt.Errorf("creating temp index: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session index: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing session index: %w", err)
	}
	return nil
}

func decodeRecords(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding session index: %w", err)
	}
	return records, nil
}

func encodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding session index: %w", err)
	}
	return data, nil
}
