// file: internal/database/store.go
// version: 2.0.0
// guid: 1c0d9e8f-7a6b-4c5d-3e2f-1a0b9c8d7e6f

// Package database provides the persistent key-value substrate the library
// sits on. The contract is deliberately tiny: string keys, opaque byte
// values, no multi-key transactions. The whole-library snapshot is the unit
// of consistency; serialization happens above, in the library service.
package database

import (
	"fmt"
)

// Keys used by the library layer.
const (
	// KeyLibrary holds the full LibrarySnapshot JSON.
	KeyLibrary = "library"
	// KeySettings holds the LibrarySettings JSON.
	KeySettings = "settings"
	// ChapterKeyPrefix prefixes one key per novel id holding its chapter map.
	ChapterKeyPrefix = "chapters_"
)

// ChapterKey builds the chapter-map key for a novel id.
func ChapterKey(novelID string) string {
	return ChapterKeyPrefix + novelID
}

// Store is the key-value substrate. Get reports found=false for an absent
// key; Set overwrites unconditionally.
type Store interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	GetAll() (map[string][]byte, error)
	Close() error
}

// GlobalStore is the process-wide store handle, set by InitializeStore.
var GlobalStore Store

// InitializeStore opens the configured backend and installs it as
// GlobalStore. SQLite is opt-in behind an explicit safety flag; Pebble is
// the default.
func InitializeStore(storeType, path string, enableSQLite bool) error {
	var (
		store Store
		err   error
	)
	switch storeType {
	case "", "pebble":
		store, err = NewPebbleStore(path)
	case "sqlite", "sqlite3":
		if !enableSQLite {
			return fmt.Errorf("sqlite backend requested but not enabled (set enable_sqlite3_i_know_the_risks)")
		}
		store, err = NewSQLiteStore(path)
	default:
		return fmt.Errorf("unknown store type %q", storeType)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s store at %s: %w", storeType, path, err)
	}
	GlobalStore = store
	return nil
}

// CloseStore closes and clears the global store.
func CloseStore() error {
	if GlobalStore == nil {
		return nil
	}
	err := GlobalStore.Close()
	GlobalStore = nil
	return err
}
