package credential

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MetadataFile is the file name the metadata store uses inside the state
// dir. It is rewritten every time a key is configured.
const MetadataFile = "key-metadata.json"

// KeyMetadata is the non-secret bookkeeping kept next to the audit log.
type KeyMetadata struct {
	ConfiguredAt time.Time `json:"configured_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MetadataStore persists KeyMetadata to a JSON file, keyed by logical name.
type MetadataStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*KeyMetadata
}

// NewMetadataStore loads or creates a metadata file.
func NewMetadataStore(path string) (*MetadataStore, error) {
	ms := &MetadataStore{
		path:    path,
		entries: make(map[string]*KeyMetadata),
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if jsonErr := json.Unmarshal(data, &ms.entries); jsonErr != nil {
			slog.Warn("corrupt key metadata file, starting fresh", "path", path, "error", jsonErr)
			ms.entries = make(map[string]*KeyMetadata)
		}
	}

	return ms, nil
}

// Path returns the metadata file location.
func (ms *MetadataStore) Path() string {
	return ms.path
}

// Get returns a copy of the metadata for name, or nil if not tracked.
func (ms *MetadataStore) Get(name string) *KeyMetadata {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	m, ok := ms.entries[name]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// Touch records a write at now, setting ConfiguredAt on the first one.
func (ms *MetadataStore) Touch(name string, now time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	m, ok := ms.entries[name]
	if !ok {
		m = &KeyMetadata{ConfiguredAt: now}
		ms.entries[name] = m
	}
	m.UpdatedAt = now
	return ms.save()
}

// Delete forgets name.
func (ms *MetadataStore) Delete(name string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.entries[name]; !ok {
		return nil
	}
	delete(ms.entries, name)
	return ms.save()
}

func (ms *MetadataStore) save() error {
	data, err := json.MarshalIndent(ms.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(ms.path), 0700); err != nil {
		return err
	}
	tmpPath := ms.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, ms.path)
}
