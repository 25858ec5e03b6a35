package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"imagegallery/models"
)

// FileRepository keeps the metadata collection in a single JSON file
// (an array of records, the layout of the original metadata.json).
//
// Appends are serialized by a mutex and the file is replaced atomically,
// so concurrent Saves in one process never lose each other's records.
// Several processes sharing one file are not coordinated.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// load reads the whole collection. A missing file is an empty collection.
func (r *FileRepository) load() ([]models.ImageRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []models.ImageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptMetadata, r.path, err)
	}
	return records, nil
}

func (r *FileRepository) write(records []models.ImageRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("create temp metadata: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metadata: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

// Append refuses to touch a collection it cannot read, so a corrupt file
// is never replaced by a one-record collection.
func (r *FileRepository) Append(_ context.Context, rec models.ImageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for _, existing := range records {
		if existing.ID == rec.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
	}
	return r.write(append(records, rec.Metadata()))
}

func (r *FileRepository) Get(_ context.Context, id string) (models.ImageRecord, error) {
	records, err := r.load()
	if err != nil {
		return models.ImageRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.ImageRecord{}, ErrNotFound
}

func (r *FileRepository) List(_ context.Context) ([]models.ImageRecord, error) {
	return r.load()
}
