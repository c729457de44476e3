// file: internal/models/library.go
// version: 1.1.0
// guid: 7c6d5e4f-3a2b-4c1d-9e8f-7a6b5c4d3e2f

package models

// SnapshotVersion is the current on-disk snapshot format version.
const SnapshotVersion = "1.0"

// Chapter is one chapter of a novel, keyed inside a ChapterMap by chapter
// number or URL.
type Chapter struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	IsEnhanced bool   `json:"is_enhanced"`
	EnhancedAt int64  `json:"enhanced_at,omitempty"` // epoch millis
	ReadAt     int64  `json:"read_at,omitempty"`     // epoch millis
}

// ChapterMap holds all known chapters for one novel.
type ChapterMap map[string]Chapter

// Clone returns a copy of the map.
func (m ChapterMap) Clone() ChapterMap {
	if m == nil {
		return nil
	}
	out := make(ChapterMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ShelfSummary is the per-shelf rollup kept inside the snapshot. NovelCount
// is always recomputed from the novel set, never written independently.
type ShelfSummary struct {
	NovelCount  int   `json:"novel_count"`
	LastUpdated int64 `json:"last_updated"` // epoch millis
}

// LibrarySnapshot is the whole library as one unit of consistency.
type LibrarySnapshot struct {
	Novels      map[string]Novel        `json:"novels"`
	Shelves     map[string]ShelfSummary `json:"shelves"`
	LastUpdated int64                   `json:"last_updated"` // epoch millis
	Version     string                  `json:"version"`
}

// NewLibrarySnapshot returns an empty snapshot at the current format version.
func NewLibrarySnapshot() *LibrarySnapshot {
	return &LibrarySnapshot{
		Novels:  make(map[string]Novel),
		Shelves: make(map[string]ShelfSummary),
		Version: SnapshotVersion,
	}
}

// RecomputeShelfCounts rebuilds the shelf rollups from the novel set and
// stamps LastUpdated. Call after every mutation; shelf counts carried in an
// imported snapshot are never trusted.
func (s *LibrarySnapshot) RecomputeShelfCounts(now int64) {
	shelves := make(map[string]ShelfSummary)
	for _, n := range s.Novels {
		sum := shelves[n.ShelfID]
		sum.NovelCount++
		sum.LastUpdated = now
		shelves[n.ShelfID] = sum
	}
	s.Shelves = shelves
	s.LastUpdated = now
}

// Clone returns a deep copy of the snapshot.
func (s *LibrarySnapshot) Clone() *LibrarySnapshot {
	out := &LibrarySnapshot{
		Novels:      make(map[string]Novel, len(s.Novels)),
		Shelves:     make(map[string]ShelfSummary, len(s.Shelves)),
		LastUpdated: s.LastUpdated,
		Version:     s.Version,
	}
	for id, n := range s.Novels {
		out.Novels[id] = n.Clone()
	}
	for id, sum := range s.Shelves {
		out.Shelves[id] = sum
	}
	return out
}

// LibrarySettings is the process-wide automation configuration. It is read
// fresh at the start of every automation pass; passes never cache it.
type LibrarySettings struct {
	AutoHoldEnabled   bool `json:"auto_hold_enabled"`
	AutoHoldDays      int  `json:"auto_hold_days"`
	AutoImportBackups bool `json:"auto_import_backups"`
}

// DefaultLibrarySettings returns the settings used before the user changes
// anything.
func DefaultLibrarySettings() LibrarySettings {
	return LibrarySettings{
		AutoHoldEnabled: true,
		AutoHoldDays:    7,
	}
}
