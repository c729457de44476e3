// file: internal/database/pebble_store.go
// version: 2.1.0
// guid: 5e4f3a2b-1c0d-4e9f-8a7b-6c5d4e3f2a1b

package database

import (
	"fmt"

	"github.com/cockroachdb/pebble/v2"
)

// PebbleStore implements Store on PebbleDB (LSM key-value store).
//
// Key Schema:
// - library             -> LibrarySnapshot JSON
// - chapters_<novel_id> -> ChapterMap JSON for that novel
// - settings            -> LibrarySettings JSON
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (or creates) a PebbleDB at path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Close closes the database.
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

// Get returns the value for key, or found=false when absent.
func (p *PebbleStore) Get(key string) ([]byte, bool, error) {
	value, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	// The slice is only valid until the closer is released.
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set writes key synchronously; the library snapshot is the consistency
// unit, so every write must survive a crash.
func (p *PebbleStore) Set(key string, value []byte) error {
	return p.db.Set([]byte(key), value, pebble.Sync)
}

// Delete removes key. Deleting an absent key is not an error.
func (p *PebbleStore) Delete(key string) error {
	return p.db.Delete([]byte(key), pebble.Sync)
}

// GetAll returns every key-value pair in the store.
func (p *PebbleStore) GetAll() (map[string][]byte, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make(map[string][]byte)
	for iter.First(); iter.Valid(); iter.Next() {
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		out[string(iter.Key())] = value
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
