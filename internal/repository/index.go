// Package repository maintains the local index mapping plugin names to
// their project repositories, used to route plugin bug reports to the
// right issue tracker.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Record is one repository entry in the index.
type Record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Index is the on-disk repository index.
type Index struct {
	mu      sync.RWMutex
	path    string
	records map[string]Record // keyed by name
}

// OpenIndex loads the index at path, starting empty when the file does
// not exist yet.
func OpenIndex(path string) (*Index, error) {
	idx := &Index{
		path:    path,
		records: make(map[string]Record),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("failed to read repository index: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse repository index: %w", err)
	}
	for _, rec := range records {
		idx.records[rec.Name] = rec
	}
	return idx, nil
}

// Upsert applies an upsert request: a request without an id creates a
// record, one with an id replaces the record carrying that id. The stored
// record is returned.
func (idx *Index) Upsert(req UpsertRequest) (Record, error) {
	if req.Properties == nil || req.Properties.Name == nil || *req.Properties.Name == "" {
		return Record{}, fmt.Errorf("repository name is required")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	rec := Record{Name: *req.Properties.Name}
	if req.URL != nil {
		rec.URL = *req.URL
	}

	if req.Properties.ID == nil || *req.Properties.ID == "" {
		rec.ID = uuid.NewString()
	} else {
		rec.ID = *req.Properties.ID
		// replacing by id: drop any record that currently holds it
		for name, existing := range idx.records {
			if existing.ID == rec.ID && name != rec.Name {
				delete(idx.records, name)
			}
		}
	}

	idx.records[rec.Name] = rec
	return rec, nil
}

// Resolve returns the repository record for a plugin name.
func (idx *Index) Resolve(name string) (Record, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	rec, ok := idx.records[name]
	return rec, ok
}

// Save writes the index back to disk, records sorted by name.
func (idx *Index) Save() error {
	idx.mu.RLock()
	records := make([]Record, 0, len(idx.records))
	for _, rec := range idx.records {
		records = append(records, rec)
	}
	idx.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal repository index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(idx.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.WriteFile(idx.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write repository index: %w", err)
	}
	return nil
}
