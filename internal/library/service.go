// file: internal/library/service.go
// version: 1.5.0
// guid: 5f6a7b8c-9d0e-4f1a-2b3c-4d5e6f7a8b9c

// Package library is the facade every caller goes through. It owns the
// persisted snapshot, serializes all read-modify-write cycles behind a
// single mutex, and wires the pure algorithm packages (reconcile, dedupe,
// stale, backup) to the key-value substrate.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jdfalk/shelfkeeper/internal/backup"
	"github.com/jdfalk/shelfkeeper/internal/cache"
	"github.com/jdfalk/shelfkeeper/internal/database"
	"github.com/jdfalk/shelfkeeper/internal/dedupe"
	"github.com/jdfalk/shelfkeeper/internal/metrics"
	"github.com/jdfalk/shelfkeeper/internal/models"
	"github.com/jdfalk/shelfkeeper/internal/reconcile"
	"github.com/jdfalk/shelfkeeper/internal/shelves"
	"github.com/jdfalk/shelfkeeper/internal/stale"
)

var (
	// ErrNotFound reports that the requested novel does not exist.
	ErrNotFound = errors.New("novel not found")
	// ErrUnknownShelf reports that no registered shelf claims the URL.
	ErrUnknownShelf = errors.New("no shelf recognizes this URL")
	// ErrNoNovelID reports that a shelf claimed the URL but no novel id
	// could be extracted from it.
	ErrNoNovelID = errors.New("could not extract a novel id from URL")
)

const statsCacheTTL = 30 * time.Second

// Service is the library facade. All operations load the snapshot, mutate a
// working copy, and persist it before releasing the mutex; a failed store
// write aborts the operation with the persisted state untouched.
type Service struct {
	store database.Store
	mu    sync.Mutex

	// Clock in epoch millis, swappable in tests.
	now func() int64

	statsCache *cache.Cache[Stats]
}

// NewService wraps a store. The store stays owned by the caller; the service
// never closes it.
func NewService(store database.Store) *Service {
	return &Service{
		store:      store,
		now:        func() int64 { return time.Now().UnixMilli() },
		statsCache: cache.New[Stats](statsCacheTTL),
	}
}

// --- snapshot and settings persistence -------------------------------------

func (s *Service) loadSnapshot() (*models.LibrarySnapshot, error) {
	data, found, err := s.store.Get(database.KeyLibrary)
	if err != nil {
		return nil, fmt.Errorf("failed to read library snapshot: %w", err)
	}
	if !found {
		return models.NewLibrarySnapshot(), nil
	}
	var snap models.LibrarySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt library snapshot: %w", err)
	}
	if snap.Novels == nil {
		snap.Novels = make(map[string]models.Novel)
	}
	if snap.Shelves == nil {
		snap.Shelves = make(map[string]models.ShelfSummary)
	}
	return &snap, nil
}

func (s *Service) saveSnapshot(snap *models.LibrarySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode library snapshot: %w", err)
	}
	if err := s.store.Set(database.KeyLibrary, data); err != nil {
		return fmt.Errorf("failed to write library snapshot: %w", err)
	}
	s.statsCache.InvalidateAll()
	metrics.SetNovels(len(snap.Novels))
	metrics.SetShelves(len(snap.Shelves))
	return nil
}

func (s *Service) loadChapters(novelID string) (models.ChapterMap, error) {
	data, found, err := s.store.Get(database.ChapterKey(novelID))
	if err != nil {
		return nil, fmt.Errorf("failed to read chapters for %s: %w", novelID, err)
	}
	if !found {
		return models.ChapterMap{}, nil
	}
	var m models.ChapterMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corrupt chapter map for %s: %w", novelID, err)
	}
	return m, nil
}

func (s *Service) saveChapters(novelID string, m models.ChapterMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode chapters for %s: %w", novelID, err)
	}
	if err := s.store.Set(database.ChapterKey(novelID), data); err != nil {
		return fmt.Errorf("failed to write chapters for %s: %w", novelID, err)
	}
	return nil
}

func (s *Service) loadAllChapters() (map[string]models.ChapterMap, error) {
	all, err := s.store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}
	out := make(map[string]models.ChapterMap)
	for key, data := range all {
		if len(key) <= len(database.ChapterKeyPrefix) || key[:len(database.ChapterKeyPrefix)] != database.ChapterKeyPrefix {
			continue
		}
		var m models.ChapterMap
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("corrupt chapter map at %s: %w", key, err)
		}
		out[key[len(database.ChapterKeyPrefix):]] = m
	}
	return out, nil
}

func (s *Service) loadSettings() (models.LibrarySettings, error) {
	data, found, err := s.store.Get(database.KeySettings)
	if err != nil {
		return models.LibrarySettings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if !found {
		return models.DefaultLibrarySettings(), nil
	}
	var st models.LibrarySettings
	if err := json.Unmarshal(data, &st); err != nil {
		return models.LibrarySettings{}, fmt.Errorf("corrupt settings: %w", err)
	}
	return st, nil
}

// GetSettings returns the stored automation settings, or the defaults when
// none were saved yet.
func (s *Service) GetSettings() (models.LibrarySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSettings()
}

// SeedSettings stores st only when nothing was persisted yet, so config-file
// defaults never clobber settings the user changed through the API.
func (s *Service) SeedSettings(st models.LibrarySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found, err := s.store.Get(database.KeySettings)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if found {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.Set(database.KeySettings, data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// SetSettings persists new automation settings.
func (s *Service) SetSettings(st models.LibrarySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.Set(database.KeySettings, data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// --- reconciliation ---------------------------------------------------------

// ReconcileScrape takes the URL a scrape came from plus its extracted
// metadata and folds it into the library. created reports whether the novel
// was new. manualEdit marks the incoming values as user-entered, which
// protects them from future automatic overwrites.
func (s *Service) ReconcileScrape(rawURL string, incoming models.PartialNovel, manualEdit bool) (models.Novel, bool, error) {
	shelf := shelves.ForURL(rawURL)
	if shelf == nil {
		return models.Novel{}, false, fmt.Errorf("%w: %s", ErrUnknownShelf, rawURL)
	}
	siteID := shelves.ExtractNovelID(rawURL, shelf)
	if siteID == "" {
		return models.Novel{}, false, fmt.Errorf("%w: %s", ErrNoNovelID, rawURL)
	}
	if incoming.SourceURL == nil && incoming.MainNovelURL == nil {
		u := rawURL
		incoming.SourceURL = &u
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Novel{}, false, err
	}
	now := s.now()
	id := models.NovelID(shelf.ID, siteID)

	var existing *models.Novel
	if cur, ok := snap.Novels[id]; ok {
		existing = &cur
	}
	merged := reconcile.Reconcile(existing, shelf.ID, siteID, incoming, manualEdit, now)
	if incoming.ChapterNumber != nil {
		reconcile.UpdateReadingProgress(&merged, *incoming.ChapterNumber, urlOrEmpty(incoming.MainNovelURL), now)
	}
	snap.Novels[id] = merged
	snap.RecomputeShelfCounts(now)
	if err := s.saveSnapshot(snap); err != nil {
		return models.Novel{}, false, err
	}

	created := existing == nil
	if created {
		metrics.IncReconcileCreated()
		log.Printf("library: added novel %s (%q)", id, merged.Title)
	} else {
		metrics.IncReconcileUpdated()
	}
	return merged, created, nil
}

func urlOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// UpdateProgress records that the user reached the given chapter of a novel
// and applies the automatic status transitions that follow from it.
func (s *Service) UpdateProgress(novelID string, chapter int, chapterURL string) (models.Novel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateProgressLocked(novelID, chapter, chapterURL)
}

func (s *Service) updateProgressLocked(novelID string, chapter int, chapterURL string) (models.Novel, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Novel{}, err
	}
	n, ok := snap.Novels[novelID]
	if !ok {
		return models.Novel{}, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	now := s.now()
	reconcile.UpdateReadingProgress(&n, chapter, chapterURL, now)
	snap.Novels[novelID] = n
	snap.RecomputeShelfCounts(now)
	if err := s.saveSnapshot(snap); err != nil {
		return models.Novel{}, err
	}
	return n, nil
}

// EditNovel applies user-entered field values. Every field the request
// carries is marked edited, shielding it from scrape-origin updates.
func (s *Service) EditNovel(novelID string, fields models.PartialNovel) (models.Novel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Novel{}, err
	}
	n, ok := snap.Novels[novelID]
	if !ok {
		return models.Novel{}, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	now := s.now()
	merged := reconcile.Reconcile(&n, n.ShelfID, n.SiteNovelID, fields, true, now)
	snap.Novels[novelID] = merged
	snap.RecomputeShelfCounts(now)
	if err := s.saveSnapshot(snap); err != nil {
		return models.Novel{}, err
	}
	return merged, nil
}

// ResetEditedFields re-opens the given fields to automatic updates. With an
// empty list it clears the whole edited set.
func (s *Service) ResetEditedFields(novelID string, fields []models.FieldName) (models.Novel, error) {
	for _, f := range fields {
		if !models.KnownField(f) {
			return models.Novel{}, fmt.Errorf("unknown field %q", f)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Novel{}, err
	}
	n, ok := snap.Novels[novelID]
	if !ok {
		return models.Novel{}, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	n.ResetEdited(fields...)
	snap.Novels[novelID] = n
	snap.RecomputeShelfCounts(s.now())
	if err := s.saveSnapshot(snap); err != nil {
		return models.Novel{}, err
	}
	return n, nil
}

// SetReadingStatus sets the status by hand, without any merge logic.
func (s *Service) SetReadingStatus(novelID string, status models.ReadingStatus) (models.Novel, error) {
	if !status.Valid() {
		return models.Novel{}, fmt.Errorf("unknown reading status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Novel{}, err
	}
	n, ok := snap.Novels[novelID]
	if !ok {
		return models.Novel{}, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	now := s.now()
	n.ReadingStatus = status
	if now > n.LastAccessedAt {
		n.LastAccessedAt = now
	}
	snap.Novels[novelID] = n
	snap.RecomputeShelfCounts(now)
	if err := s.saveSnapshot(snap); err != nil {
		return models.Novel{}, err
	}
	return n, nil
}

// --- reads ------------------------------------------------------------------

// GetNovel returns one novel and its chapter map.
func (s *Service) GetNovel(novelID string) (models.Novel, models.ChapterMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Novel{}, nil, err
	}
	n, ok := snap.Novels[novelID]
	if !ok {
		return models.Novel{}, nil, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	chapters, err := s.loadChapters(novelID)
	if err != nil {
		return models.Novel{}, nil, err
	}
	return n, chapters, nil
}

// ListNovels returns the novels on one shelf, or all novels when shelfID is
// empty, sorted by id for stable output.
func (s *Service) ListNovels(shelfID string) ([]models.Novel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	out := make([]models.Novel, 0, len(snap.Novels))
	for _, n := range snap.Novels {
		if shelfID != "" && n.ShelfID != shelfID {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteNovel removes a novel and its chapter map.
func (s *Service) DeleteNovel(novelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return err
	}
	if _, ok := snap.Novels[novelID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	delete(snap.Novels, novelID)
	snap.RecomputeShelfCounts(s.now())
	if err := s.saveSnapshot(snap); err != nil {
		return err
	}
	if err := s.store.Delete(database.ChapterKey(novelID)); err != nil {
		return fmt.Errorf("failed to delete chapters for %s: %w", novelID, err)
	}
	log.Printf("library: deleted novel %s", novelID)
	return nil
}

// --- chapters ---------------------------------------------------------------

// MarkChapterRead stamps a chapter as read and, when the chapter key is
// numeric, advances reading progress as well.
func (s *Service) MarkChapterRead(novelID, chapterKey string) (models.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Chapter{}, err
	}
	if _, ok := snap.Novels[novelID]; !ok {
		return models.Chapter{}, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	chapters, err := s.loadChapters(novelID)
	if err != nil {
		return models.Chapter{}, err
	}
	ch := chapters[chapterKey]
	ch.ReadAt = s.now()
	chapters[chapterKey] = ch
	if err := s.saveChapters(novelID, chapters); err != nil {
		return models.Chapter{}, err
	}
	if num, err := strconv.Atoi(chapterKey); err == nil && num > 0 {
		if _, err := s.updateProgressLocked(novelID, num, ch.URL); err != nil {
			return models.Chapter{}, err
		}
	}
	return ch, nil
}

// MarkChapterEnhanced flips the enhanced flag on a chapter and keeps the
// novel's enhanced counter in sync with the map.
func (s *Service) MarkChapterEnhanced(novelID, chapterKey string, enhanced bool) (models.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return models.Chapter{}, err
	}
	n, ok := snap.Novels[novelID]
	if !ok {
		return models.Chapter{}, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	chapters, err := s.loadChapters(novelID)
	if err != nil {
		return models.Chapter{}, err
	}
	ch := chapters[chapterKey]
	ch.IsEnhanced = enhanced
	if enhanced {
		ch.EnhancedAt = s.now()
	} else {
		ch.EnhancedAt = 0
	}
	chapters[chapterKey] = ch
	if err := s.saveChapters(novelID, chapters); err != nil {
		return models.Chapter{}, err
	}

	count := 0
	for _, c := range chapters {
		if c.IsEnhanced {
			count++
		}
	}
	now := s.now()
	n.EnhancedChaptersCount = count
	if now > n.LastAccessedAt {
		n.LastAccessedAt = now
	}
	snap.Novels[novelID] = n
	snap.RecomputeShelfCounts(now)
	if err := s.saveSnapshot(snap); err != nil {
		return models.Chapter{}, err
	}
	return ch, nil
}

// --- duplicates -------------------------------------------------------------

// FindDuplicates scans for candidate duplicate groups, optionally limited to
// one shelf.
func (s *Service) FindDuplicates(shelfID string) ([]dedupe.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	return dedupe.FindDuplicates(snap, shelfID), nil
}

// NearTitleMatches returns fuzzy same-shelf title matches for one novel.
func (s *Service) NearTitleMatches(novelID string, maxRank int) ([]dedupe.TitleMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	if _, ok := snap.Novels[novelID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, novelID)
	}
	return dedupe.NearTitleMatches(snap, novelID, maxRank), nil
}

// MergeResult reports one duplicate-group merge.
type MergeResult struct {
	KeeperID string `json:"keeper_id"`
	Removed  int    `json:"removed"`
}

// MergeDuplicates folds the given novels into keepID. With an empty keepID
// the keeper is chosen by completeness score. All ids must exist and share a
// shelf with the keeper.
func (s *Service) MergeDuplicates(ids []string, keepID string) (MergeResult, error) {
	if len(ids) < 2 {
		return MergeResult{}, errors.New("merge needs at least two novels")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return MergeResult{}, err
	}
	res, err := s.mergeGroupLocked(snap, ids, keepID)
	if err != nil {
		return MergeResult{}, err
	}
	snap.RecomputeShelfCounts(s.now())
	if err := s.saveSnapshot(snap); err != nil {
		return MergeResult{}, err
	}
	return res, nil
}

// mergeGroupLocked folds one group in the working snapshot and persists the
// merged chapter map. The caller recomputes counts and saves the snapshot.
func (s *Service) mergeGroupLocked(snap *models.LibrarySnapshot, ids []string, keepID string) (MergeResult, error) {
	for _, id := range ids {
		if _, ok := snap.Novels[id]; !ok {
			return MergeResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	if keepID == "" {
		keepID = dedupe.PickKeeper(snap, ids)
	} else {
		found := false
		for _, id := range ids {
			if id == keepID {
				found = true
				break
			}
		}
		if !found {
			return MergeResult{}, fmt.Errorf("keeper %s is not in the merge set", keepID)
		}
	}

	keeper := snap.Novels[keepID]
	losers := make([]models.Novel, 0, len(ids)-1)
	loserIDs := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id == keepID {
			continue
		}
		losers = append(losers, snap.Novels[id])
		loserIDs = append(loserIDs, id)
	}

	chapterMaps := make([]models.ChapterMap, 0, len(ids))
	keeperChapters, err := s.loadChapters(keepID)
	if err != nil {
		return MergeResult{}, err
	}
	chapterMaps = append(chapterMaps, keeperChapters)
	for _, id := range loserIDs {
		m, err := s.loadChapters(id)
		if err != nil {
			return MergeResult{}, err
		}
		chapterMaps = append(chapterMaps, m)
	}

	folded := dedupe.Fold(keeper, losers)
	mergedChapters := dedupe.MergeChapterMaps(chapterMaps...)

	enhanced := 0
	for _, c := range mergedChapters {
		if c.IsEnhanced {
			enhanced++
		}
	}
	if enhanced > folded.EnhancedChaptersCount {
		folded.EnhancedChaptersCount = enhanced
	}

	if err := s.saveChapters(keepID, mergedChapters); err != nil {
		return MergeResult{}, err
	}
	snap.Novels[keepID] = folded
	for _, id := range loserIDs {
		delete(snap.Novels, id)
		if err := s.store.Delete(database.ChapterKey(id)); err != nil {
			return MergeResult{}, fmt.Errorf("failed to delete chapters for %s: %w", id, err)
		}
	}

	metrics.IncDuplicateMerge(len(loserIDs))
	log.Printf("library: merged %d duplicates into %s", len(loserIDs), keepID)
	return MergeResult{KeeperID: keepID, Removed: len(loserIDs)}, nil
}

// CleanupResult reports one whole-library duplicate sweep.
type CleanupResult struct {
	MergedGroups int      `json:"merged_groups"`
	TotalRemoved int      `json:"total_removed"`
	Errors       []string `json:"errors,omitempty"`
}

// CleanupDuplicates finds every duplicate group (optionally on one shelf) and
// merges each into its best keeper. A group that fails to merge is reported
// and skipped; the sweep continues.
func (s *Service) CleanupDuplicates(shelfID string) (CleanupResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveOperationDuration("cleanup_duplicates", time.Since(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return CleanupResult{}, err
	}

	var out CleanupResult
	for _, g := range dedupe.FindDuplicates(snap, shelfID) {
		res, err := s.mergeGroupLocked(snap, g.IDs, "")
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("group %s/%s: %v", g.ShelfID, g.Key, err))
			continue
		}
		out.MergedGroups++
		out.TotalRemoved += res.Removed
	}
	if out.MergedGroups > 0 {
		snap.RecomputeShelfCounts(s.now())
		if err := s.saveSnapshot(snap); err != nil {
			return CleanupResult{}, err
		}
	}
	return out, nil
}

// --- stale automation -------------------------------------------------------

// ApplyStaleRules runs one auto-hold pass over the library using the stored
// settings, read fresh at call time.
func (s *Service) ApplyStaleRules() (stale.Result, error) {
	start := time.Now()
	defer func() { metrics.ObserveOperationDuration("stale_pass", time.Since(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings()
	if err != nil {
		return stale.Result{}, err
	}
	snap, err := s.loadSnapshot()
	if err != nil {
		return stale.Result{}, err
	}
	res := stale.Apply(snap, settings, s.now())
	if len(res.Changed) == 0 {
		return res, nil
	}
	if err := s.saveSnapshot(snap); err != nil {
		return stale.Result{}, err
	}
	for i := 0; i < res.ToOnHold; i++ {
		metrics.IncStaleTransition(string(models.StatusOnHold))
	}
	for i := 0; i < res.ToPlanToRead; i++ {
		metrics.IncStaleTransition(string(models.StatusPlanToRead))
	}
	log.Printf("library: stale pass moved %d to on_hold, %d to plan_to_read", res.ToOnHold, res.ToPlanToRead)
	return res, nil
}

// --- backup -----------------------------------------------------------------

// Export serializes the whole library (snapshot plus chapter maps) into a
// backup payload.
func (s *Service) Export() ([]byte, error) {
	start := time.Now()
	defer func() { metrics.ObserveOperationDuration("export", time.Since(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	chapters, err := s.loadAllChapters()
	if err != nil {
		return nil, err
	}
	data, err := backup.Export(snap, chapters, s.now()).Encode()
	if err != nil {
		return nil, err
	}
	metrics.IncBackupExported()
	return data, nil
}

// Import applies a backup in the given mode and persists the result.
func (s *Service) Import(data []byte, mode backup.Mode) (backup.ImportSummary, error) {
	start := time.Now()
	defer func() { metrics.ObserveOperationDuration("import", time.Since(start)) }()

	payload, err := backup.Decode(data)
	if err != nil {
		return backup.ImportSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return backup.ImportSummary{}, err
	}
	localChapters, err := s.loadAllChapters()
	if err != nil {
		return backup.ImportSummary{}, err
	}

	merged, mergedChapters, summary := backup.Import(snap, localChapters, payload, mode, s.now())

	if err := s.saveSnapshot(merged); err != nil {
		return backup.ImportSummary{}, err
	}
	for id, m := range mergedChapters {
		if err := s.saveChapters(id, m); err != nil {
			return backup.ImportSummary{}, err
		}
	}
	if mode == backup.ModeReplace {
		// Chapter keys for novels dropped by the replace become orphans.
		for id := range localChapters {
			if _, ok := mergedChapters[id]; !ok {
				if err := s.store.Delete(database.ChapterKey(id)); err != nil {
					return backup.ImportSummary{}, fmt.Errorf("failed to delete chapters for %s: %w", id, err)
				}
			}
		}
	}
	metrics.IncBackupImported(string(mode))
	log.Printf("library: import (%s) imported=%d updated=%d skipped=%d errors=%d",
		mode, summary.Imported, summary.Updated, summary.Skipped, summary.Errors)
	return summary, nil
}

// --- stats ------------------------------------------------------------------

// Stats is the library rollup served to dashboards.
type Stats struct {
	TotalNovels      int                          `json:"total_novels"`
	ByStatus         map[models.ReadingStatus]int `json:"by_status"`
	ByShelf          map[string]int               `json:"by_shelf"`
	ChaptersRead     int                          `json:"chapters_read"`
	EnhancedChapters int                          `json:"enhanced_chapters"`
	LastUpdated      int64                        `json:"last_updated"`
}

// Stats computes the library rollup, memoized briefly between mutations.
func (s *Service) Stats() (Stats, error) {
	if st, ok := s.statsCache.Get("stats"); ok {
		return st, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.loadSnapshot()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		ByStatus:    make(map[models.ReadingStatus]int),
		ByShelf:     make(map[string]int),
		LastUpdated: snap.LastUpdated,
	}
	for _, n := range snap.Novels {
		st.TotalNovels++
		st.ByStatus[n.ReadingStatus]++
		st.ByShelf[n.ShelfID]++
		st.ChaptersRead += n.LastReadChapter
		st.EnhancedChapters += n.EnhancedChaptersCount
	}
	s.statsCache.Set("stats", st)
	return st, nil
}

// ValidateURL reports which shelf would claim a URL and the novel id it
// extracts, without touching the library.
func ValidateURL(rawURL string) (shelfID, siteNovelID string, err error) {
	if _, err := url.Parse(rawURL); err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}
	shelf := shelves.ForURL(rawURL)
	if shelf == nil {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownShelf, rawURL)
	}
	id := shelves.ExtractNovelID(rawURL, shelf)
	if id == "" {
		return "", "", fmt.Errorf("%w: %s", ErrNoNovelID, rawURL)
	}
	return shelf.ID, id, nil
}
