// file: internal/reconcile/reconcile.go
// version: 1.4.1
// guid: 8e7f6a5b-4c3d-4e2f-9a1b-0c9d8e7f6a5b

// Package reconcile implements the additive merge applied on every metadata
// refresh. The contract: never silently lose valid data, never overwrite a
// manually edited field.
package reconcile

import (
	"reflect"

	"github.com/jdfalk/shelfkeeper/internal/models"
)

// Sentinel titles some extractors emit when a page fails to parse. They are
// never allowed to replace real data.
const (
	sentinelUnknown      = "Unknown"
	sentinelUnknownNovel = "Unknown Novel"
)

// ValidString reports whether a scraped string carries real information.
func ValidString(s string) bool {
	return s != "" && s != sentinelUnknown && s != sentinelUnknownNovel
}

// ValidCount reports whether a scraped chapter count carries information.
// Extractors emit 0 when the count is missing from the page, so 0 is "no
// information", not "the novel has no chapters".
func ValidCount(n int) bool {
	return n > 0
}

// ValidMetadataValue reports whether an open-bag value is worth keeping.
func ValidMetadataValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return ValidString(t)
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// Reconcile folds an incoming partial payload into the stored novel. When
// existing is nil a new novel is constructed with the stated defaults.
// manualEdit marks differing fields as user-edited and applies them
// unconditionally; the automatic path respects the edited set and the
// validity predicate. now is epoch millis.
func Reconcile(existing *models.Novel, shelfID, siteNovelID string, incoming models.PartialNovel, manualEdit bool, now int64) models.Novel {
	if existing == nil {
		return newNovel(shelfID, siteNovelID, incoming, now)
	}
	return merge(*existing, incoming, manualEdit, now)
}

// newNovel constructs a novel on first sight of a (shelf, site id) pair.
// Absent fields take their zero-value defaults.
func newNovel(shelfID, siteNovelID string, incoming models.PartialNovel, now int64) models.Novel {
	n := models.Novel{
		ID:            models.NovelID(shelfID, siteNovelID),
		ShelfID:       shelfID,
		SiteNovelID:   siteNovelID,
		ReadingStatus: models.StatusPlanToRead,
		AddedAt:       now,
		LastAccessedAt: now,
	}
	if incoming.Title != nil && ValidString(*incoming.Title) {
		n.Title = *incoming.Title
	}
	if incoming.Author != nil && ValidString(*incoming.Author) {
		n.Author = *incoming.Author
	}
	if incoming.CoverURL != nil && ValidString(*incoming.CoverURL) {
		n.CoverURL = *incoming.CoverURL
	}
	if incoming.Description != nil && ValidString(*incoming.Description) {
		n.Description = *incoming.Description
	}
	if incoming.SiteStatus != nil && ValidString(*incoming.SiteStatus) {
		n.SiteStatus = *incoming.SiteStatus
	}
	if incoming.TotalChapters != nil && ValidCount(*incoming.TotalChapters) {
		n.TotalChapters = *incoming.TotalChapters
	}
	n.Genres = models.UnionStringSets(nil, incoming.Genres)
	n.Tags = models.UnionStringSets(nil, incoming.Tags)
	n.Metadata = mergeBag(nil, incoming.Metadata)
	n.Stats = mergeStats(nil, incoming.Stats)
	n.SourceURL = firstSourceURL(incoming)
	return n
}

// merge applies the per-field update rules to an existing novel.
func merge(n models.Novel, incoming models.PartialNovel, manualEdit bool, now int64) models.Novel {
	out := n.Clone()

	mergeString(&out, models.FieldTitle, &out.Title, incoming.Title, manualEdit)
	mergeString(&out, models.FieldAuthor, &out.Author, incoming.Author, manualEdit)
	mergeString(&out, models.FieldCoverURL, &out.CoverURL, incoming.CoverURL, manualEdit)
	mergeString(&out, models.FieldDescription, &out.Description, incoming.Description, manualEdit)
	mergeString(&out, models.FieldSiteStatus, &out.SiteStatus, incoming.SiteStatus, manualEdit)

	if incoming.TotalChapters != nil {
		switch {
		case manualEdit:
			if *incoming.TotalChapters != out.TotalChapters {
				out.MarkEdited(models.FieldTotalChapters)
				out.TotalChapters = *incoming.TotalChapters
			}
		case out.HasEditedField(models.FieldTotalChapters):
			// stored value wins
		case ValidCount(*incoming.TotalChapters):
			out.TotalChapters = *incoming.TotalChapters
		}
	}

	mergeSet(&out, models.FieldGenres, &out.Genres, incoming.Genres, manualEdit)
	mergeSet(&out, models.FieldTags, &out.Tags, incoming.Tags, manualEdit)

	if incoming.Metadata != nil {
		switch {
		case manualEdit:
			// Same rule as the scalars: an unchanged bag in a manual save
			// does not lock the field.
			if replaced := mergeBag(nil, incoming.Metadata); !reflect.DeepEqual(out.Metadata, replaced) {
				out.MarkEdited(models.FieldMetadata)
				out.Metadata = replaced
			}
		case out.HasEditedField(models.FieldMetadata):
		default:
			out.Metadata = mergeBag(out.Metadata, incoming.Metadata)
		}
	}
	if incoming.Stats != nil {
		switch {
		case manualEdit:
			if replaced := mergeStats(nil, incoming.Stats); !reflect.DeepEqual(out.Stats, replaced) {
				out.MarkEdited(models.FieldStats)
				out.Stats = replaced
			}
		case out.HasEditedField(models.FieldStats):
		default:
			out.Stats = mergeStats(out.Stats, incoming.Stats)
		}
	}

	// sourceUrl is filled once, never churned by re-scrapes.
	if out.SourceURL == "" {
		out.SourceURL = firstSourceURL(incoming)
	}

	if now > out.LastAccessedAt {
		out.LastAccessedAt = now
	}
	return out
}

// mergeString applies the scalar rule: manual edits replace unconditionally
// and mark the field; automatic updates require validity and an unedited
// field. Invalid incoming values never erase stored ones.
func mergeString(n *models.Novel, f models.FieldName, cur *string, incoming *string, manualEdit bool) {
	if incoming == nil {
		return
	}
	if manualEdit {
		if *incoming != *cur {
			n.MarkEdited(f)
			*cur = *incoming
		}
		return
	}
	if n.HasEditedField(f) {
		return
	}
	if ValidString(*incoming) {
		*cur = *incoming
	}
}

// mergeSet applies the set rule: union on the automatic path (sets never
// shrink), replacement on the manual path.
func mergeSet(n *models.Novel, f models.FieldName, cur *[]string, incoming []string, manualEdit bool) {
	if incoming == nil {
		return
	}
	if manualEdit {
		if !equalStringSlices(*cur, incoming) {
			n.MarkEdited(f)
			*cur = models.UnionStringSets(nil, incoming)
		}
		return
	}
	if n.HasEditedField(f) {
		return
	}
	if len(incoming) > 0 {
		*cur = models.UnionStringSets(*cur, incoming)
	}
}

// mergeBag deep-merges the open metadata bag key-by-key: an existing key is
// kept unless the incoming value for that key is independently valid.
func mergeBag(existing, incoming map[string]any) map[string]any {
	if len(existing) == 0 && len(incoming) == 0 {
		return existing
	}
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		if ValidMetadataValue(v) {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mergeStats merges numeric site stats; zero means "not reported".
func mergeStats(existing, incoming map[string]float64) map[string]float64 {
	if len(existing) == 0 && len(incoming) == 0 {
		return existing
	}
	out := make(map[string]float64, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		if v != 0 {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstSourceURL(incoming models.PartialNovel) string {
	if incoming.SourceURL != nil && ValidString(*incoming.SourceURL) {
		return *incoming.SourceURL
	}
	if incoming.MainNovelURL != nil && ValidString(*incoming.MainNovelURL) {
		return *incoming.MainNovelURL
	}
	return ""
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
