// file: internal/dedupe/dedupe.go
// version: 1.3.0
// guid: 0a9b8c7d-6e5f-4a4b-8c3d-2e1f0a9b8c7d

// Package dedupe groups duplicate novels, scores them, and folds each group
// into one surviving record. All functions are pure over the snapshot; the
// library service drives persistence.
package dedupe

import (
	"sort"

	"github.com/jdfalk/shelfkeeper/internal/models"
)

// Reason says which signal put a group together.
type Reason string

const (
	// SameSiteID groups share (shelfId, siteNovelId): the strongest signal.
	SameSiteID Reason = "same_site_id"
	// SimilarTitle groups share (shelfId, normalized title) and were not
	// already caught by the site-id signal.
	SimilarTitle Reason = "similar_title"
)

// Group is one set of candidate duplicates.
type Group struct {
	Reason  Reason   `json:"reason"`
	ShelfID string   `json:"shelf_id"`
	Key     string   `json:"key"`
	IDs     []string `json:"ids"`
}

// FindDuplicates scans the snapshot for duplicate groups. shelfFilter narrows
// the scan to one shelf; "" scans everything. Title matching only runs over
// novels not already resolved by the site-id signal, so no novel is counted
// twice.
func FindDuplicates(snapshot *models.LibrarySnapshot, shelfFilter string) []Group {
	bySiteID := make(map[[2]string][]string)
	for id, n := range snapshot.Novels {
		if shelfFilter != "" && n.ShelfID != shelfFilter {
			continue
		}
		key := [2]string{n.ShelfID, n.SiteNovelID}
		bySiteID[key] = append(bySiteID[key], id)
	}

	var groups []Group
	grouped := make(map[string]bool)
	for key, ids := range bySiteID {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		groups = append(groups, Group{Reason: SameSiteID, ShelfID: key[0], Key: key[1], IDs: ids})
		for _, id := range ids {
			grouped[id] = true
		}
	}

	byTitle := make(map[[2]string][]string)
	for id, n := range snapshot.Novels {
		if shelfFilter != "" && n.ShelfID != shelfFilter {
			continue
		}
		if grouped[id] {
			continue
		}
		title := NormalizeTitle(n.Title)
		if title == "" {
			continue
		}
		key := [2]string{n.ShelfID, title}
		byTitle[key] = append(byTitle[key], id)
	}
	for key, ids := range byTitle {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		groups = append(groups, Group{Reason: SimilarTitle, ShelfID: key[0], Key: key[1], IDs: ids})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].ShelfID != groups[j].ShelfID {
			return groups[i].ShelfID < groups[j].ShelfID
		}
		if groups[i].Reason != groups[j].Reason {
			return groups[i].Reason < groups[j].Reason
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// NearTitleMatches surfaces fuzzy near-duplicates of the given novel's title
// on the same shelf, for user review before a merge. maxRank bounds the edit
// distance; 3 works well for scraped title variants.
func NearTitleMatches(snapshot *models.LibrarySnapshot, novelID string, maxRank int) []TitleMatch {
	n, ok := snapshot.Novels[novelID]
	if !ok {
		return nil
	}
	candidates := make(map[string]string)
	for id, other := range snapshot.Novels {
		if id == novelID || other.ShelfID != n.ShelfID {
			continue
		}
		candidates[id] = other.Title
	}
	return rankNearTitles(n.Title, candidates, maxRank)
}

// Score rates how much a copy is worth keeping. Enhanced chapters dominate,
// then reading progress, then metadata completeness.
func Score(n models.Novel) int {
	score := n.EnhancedChaptersCount*10 + n.LastReadChapter
	if n.CoverURL != "" {
		score += 5
	}
	if n.Description != "" {
		score += 3
	}
	if n.Author != "" {
		score += 2
	}
	if n.LastAccessedAt > 0 {
		score++
	}
	return score
}

// PickKeeper chooses the highest-scoring candidate. Ties keep the first in
// iteration order; callers wanting determinism pass sorted ids.
func PickKeeper(snapshot *models.LibrarySnapshot, ids []string) string {
	best := ""
	bestScore := -1
	for _, id := range ids {
		n, ok := snapshot.Novels[id]
		if !ok {
			continue
		}
		if s := Score(n); s > bestScore {
			best, bestScore = id, s
		}
	}
	return best
}

// Fold absorbs the losers into the keeper, field by field. The result keeps
// the keeper's identity; progress, status priority and counters take the
// best value found in the group, sets union, and cover/description only fill
// a keeper-side gap.
func Fold(keeper models.Novel, losers []models.Novel) models.Novel {
	out := keeper.Clone()
	for _, l := range losers {
		if l.LastReadChapter > out.LastReadChapter {
			out.LastReadChapter = l.LastReadChapter
			out.LastReadURL = l.LastReadURL
		}
		if l.EnhancedChaptersCount > out.EnhancedChaptersCount {
			out.EnhancedChaptersCount = l.EnhancedChaptersCount
		}
		if l.ReadingStatus.MergePriority() > out.ReadingStatus.MergePriority() {
			out.ReadingStatus = l.ReadingStatus
		}
		if l.TotalChapters > out.TotalChapters {
			out.TotalChapters = l.TotalChapters
		}
		if out.CoverURL == "" {
			out.CoverURL = l.CoverURL
		}
		if out.Description == "" {
			out.Description = l.Description
		}
		if out.Author == "" {
			out.Author = l.Author
		}
		if out.SourceURL == "" {
			out.SourceURL = l.SourceURL
		}
		out.Genres = models.UnionStringSets(out.Genres, l.Genres)
		out.Tags = models.UnionStringSets(out.Tags, l.Tags)
		for k, v := range l.Metadata {
			if _, exists := out.Metadata[k]; !exists {
				if out.Metadata == nil {
					out.Metadata = make(map[string]any)
				}
				out.Metadata[k] = v
			}
		}
		for k, v := range l.Stats {
			if _, exists := out.Stats[k]; !exists {
				if out.Stats == nil {
					out.Stats = make(map[string]float64)
				}
				out.Stats[k] = v
			}
		}
		// Edit protection from any copy carries over.
		for _, f := range l.EditedFields {
			out.MarkEdited(f)
		}
		if l.AddedAt > 0 && (out.AddedAt == 0 || l.AddedAt < out.AddedAt) {
			out.AddedAt = l.AddedAt
		}
		if l.LastAccessedAt > out.LastAccessedAt {
			out.LastAccessedAt = l.LastAccessedAt
		}
	}
	return out
}

// MergeChapterMaps unions chapter maps, preferring the enhanced copy of any
// chapter present in more than one map.
func MergeChapterMaps(maps ...models.ChapterMap) models.ChapterMap {
	var out models.ChapterMap
	for _, m := range maps {
		for key, ch := range m {
			if out == nil {
				out = make(models.ChapterMap)
			}
			cur, exists := out[key]
			if !exists {
				out[key] = ch
				continue
			}
			if ch.IsEnhanced && !cur.IsEnhanced {
				out[key] = ch
			}
		}
	}
	return out
}
