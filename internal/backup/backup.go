// file: internal/backup/backup.go
// version: 2.0.0
// guid: 9b8c7d6e-5f4a-4b3c-2d1e-0f9a8b7c6d5e

// Package backup implements library export and import with three
// user-selectable merge policies. Import is best-effort: one bad novel is
// counted, never fatal to the batch.
package backup

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"github.com/jdfalk/shelfkeeper/internal/dedupe"
	"github.com/jdfalk/shelfkeeper/internal/models"
	"github.com/jdfalk/shelfkeeper/internal/reconcile"
)

// FormatVersion is the backup payload version this code writes.
const FormatVersion = "1.0"

// ErrInvalidBackup marks a payload missing its required envelope fields.
var ErrInvalidBackup = errors.New("invalid backup payload")

// Mode selects how an import treats novels already in the library.
type Mode string

const (
	// ModeReplace: the imported snapshot fully supersedes the local one.
	ModeReplace Mode = "replace"
	// ModeAppend: ids already present locally are skipped entirely.
	ModeAppend Mode = "append"
	// ModeSmartMerge: field-by-field additive merge, the default.
	ModeSmartMerge Mode = "smart_merge"
)

// ParseMode maps a user-supplied string to a Mode, defaulting to smart merge.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "smart", "smart_merge", "merge":
		return ModeSmartMerge, nil
	case "replace":
		return ModeReplace, nil
	case "append":
		return ModeAppend, nil
	}
	return "", fmt.Errorf("unknown import mode %q", s)
}

// Payload is the versioned backup envelope.
type Payload struct {
	Library    *models.LibrarySnapshot      `json:"library"`
	Chapters   map[string]models.ChapterMap `json:"chapters,omitempty"`
	ExportedAt int64                        `json:"exported_at"` // epoch millis
	Version    string                       `json:"version"`
	ExportID   string                       `json:"export_id,omitempty"`
}

// ImportSummary reports a best-effort import.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
	Messages []string `json:"messages,omitempty"`
}

// Export packages the library into a backup payload. Pure read, no mutation.
func Export(snapshot *models.LibrarySnapshot, chapters map[string]models.ChapterMap, now int64) *Payload {
	out := &Payload{
		Library:    snapshot.Clone(),
		ExportedAt: now,
		Version:    FormatVersion,
		ExportID:   ulid.MustNew(ulid.Timestamp(time.UnixMilli(now)), rand.Reader).String(),
	}
	if len(chapters) > 0 {
		out.Chapters = make(map[string]models.ChapterMap, len(chapters))
		for id, m := range chapters {
			out.Chapters[id] = m.Clone()
		}
	}
	return out
}

// Decode parses and validates a backup payload. A payload without a library
// or a version is rejected with ErrInvalidBackup, never a crash.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if p.Library == nil {
		return nil, fmt.Errorf("%w: missing library", ErrInvalidBackup)
	}
	if p.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidBackup)
	}
	if p.Library.Novels == nil {
		p.Library.Novels = make(map[string]models.Novel)
	}
	return &p, nil
}

// Encode serializes a payload for writing to a backup file.
func (p *Payload) Encode() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Import merges the payload into the local library under the given mode and
// returns the resulting snapshot and chapter maps. Inputs are not mutated.
// Shelf counts in the result are always recomputed, never trusted from
// either side. now is epoch millis.
func Import(local *models.LibrarySnapshot, localChapters map[string]models.ChapterMap, p *Payload, mode Mode, now int64) (*models.LibrarySnapshot, map[string]models.ChapterMap, ImportSummary) {
	var sum ImportSummary

	switch mode {
	case ModeReplace:
		out := models.NewLibrarySnapshot()
		chapters := make(map[string]models.ChapterMap)
		for id, n := range p.Library.Novels {
			if err := checkImportedNovel(id, n); err != nil {
				sum.Errors++
				sum.Messages = append(sum.Messages, err.Error())
				continue
			}
			out.Novels[id] = n.Clone()
			if m, ok := p.Chapters[id]; ok {
				chapters[id] = m.Clone()
			}
			sum.Imported++
		}
		out.RecomputeShelfCounts(now)
		return out, chapters, sum

	case ModeAppend:
		out := local.Clone()
		chapters := cloneChapters(localChapters)
		for id, n := range p.Library.Novels {
			if err := checkImportedNovel(id, n); err != nil {
				sum.Errors++
				sum.Messages = append(sum.Messages, err.Error())
				continue
			}
			if _, exists := out.Novels[id]; exists {
				sum.Skipped++
				continue
			}
			out.Novels[id] = n.Clone()
			if m, ok := p.Chapters[id]; ok {
				chapters[id] = m.Clone()
			}
			sum.Imported++
		}
		out.RecomputeShelfCounts(now)
		return out, chapters, sum

	default: // ModeSmartMerge
		out := local.Clone()
		chapters := cloneChapters(localChapters)
		for id, n := range p.Library.Novels {
			if err := checkImportedNovel(id, n); err != nil {
				sum.Errors++
				sum.Messages = append(sum.Messages, err.Error())
				continue
			}
			existing, exists := out.Novels[id]
			if !exists {
				out.Novels[id] = n.Clone()
				if m, ok := p.Chapters[id]; ok {
					chapters[id] = m.Clone()
				}
				sum.Imported++
				continue
			}
			out.Novels[id] = smartMergeNovel(existing, n, now)
			if imported, ok := p.Chapters[id]; ok {
				chapters[id] = dedupe.MergeChapterMaps(chapters[id], imported)
			}
			sum.Updated++
		}
		out.RecomputeShelfCounts(now)
		return out, chapters, sum
	}
}

// smartMergeNovel folds an imported copy into the local one using the same
// validity and union rules as a live re-scrape, then applies the backup
// extras: earliest addedAt, latest access, best progress and counters.
func smartMergeNovel(local, imported models.Novel, now int64) models.Novel {
	incoming := models.PartialNovel{
		Genres:   imported.Genres,
		Tags:     imported.Tags,
		Metadata: imported.Metadata,
		Stats:    imported.Stats,
	}
	if imported.Title != "" {
		incoming.Title = &imported.Title
	}
	if imported.Author != "" {
		incoming.Author = &imported.Author
	}
	if imported.CoverURL != "" {
		incoming.CoverURL = &imported.CoverURL
	}
	if imported.Description != "" {
		incoming.Description = &imported.Description
	}
	if imported.SiteStatus != "" {
		incoming.SiteStatus = &imported.SiteStatus
	}
	if imported.SourceURL != "" {
		incoming.SourceURL = &imported.SourceURL
	}
	if imported.TotalChapters > 0 {
		incoming.TotalChapters = &imported.TotalChapters
	}

	out := reconcile.Reconcile(&local, "", "", incoming, false, now)

	if imported.AddedAt > 0 && (out.AddedAt == 0 || imported.AddedAt < out.AddedAt) {
		out.AddedAt = imported.AddedAt
	}
	if imported.LastAccessedAt > out.LastAccessedAt {
		out.LastAccessedAt = imported.LastAccessedAt
	}
	if imported.LastReadChapter > out.LastReadChapter {
		out.LastReadChapter = imported.LastReadChapter
		if imported.LastReadURL != "" {
			out.LastReadURL = imported.LastReadURL
		}
	}
	if imported.EnhancedChaptersCount > out.EnhancedChaptersCount {
		out.EnhancedChaptersCount = imported.EnhancedChaptersCount
	}
	if imported.ReadingStatus.MergePriority() > out.ReadingStatus.MergePriority() {
		out.ReadingStatus = imported.ReadingStatus
	}
	for _, f := range imported.EditedFields {
		out.MarkEdited(f)
	}
	return out
}

// checkImportedNovel rejects entries that would corrupt the id scheme.
func checkImportedNovel(key string, n models.Novel) error {
	if n.ID == "" || n.ShelfID == "" || n.SiteNovelID == "" {
		return fmt.Errorf("novel %q: missing identity fields", key)
	}
	if n.ID != key {
		return fmt.Errorf("novel %q: id mismatch (%q)", key, n.ID)
	}
	if n.ID != models.NovelID(n.ShelfID, n.SiteNovelID) {
		return fmt.Errorf("novel %q: id does not match shelf/site pair", key)
	}
	return nil
}

func cloneChapters(in map[string]models.ChapterMap) map[string]models.ChapterMap {
	out := make(map[string]models.ChapterMap, len(in))
	for id, m := range in {
		out[id] = m.Clone()
	}
	return out
}
