// file: internal/models/novel.go
// version: 1.3.0
// guid: 3f2a1b0c-9d8e-4f5a-b6c7-d8e9f0a1b2c3

package models

import "sort"

// ReadingStatus is the user-facing reading state of a novel.
type ReadingStatus string

const (
	StatusReading    ReadingStatus = "reading"
	StatusCompleted  ReadingStatus = "completed"
	StatusPlanToRead ReadingStatus = "plan_to_read"
	StatusOnHold     ReadingStatus = "on_hold"
	StatusDropped    ReadingStatus = "dropped"
	StatusReReading  ReadingStatus = "re_reading"
)

// MergePriority orders statuses for duplicate folding: when two copies of the
// same novel disagree, the higher-priority status survives. ReReading counts
// as Reading.
func (s ReadingStatus) MergePriority() int {
	switch s {
	case StatusCompleted:
		return 5
	case StatusReading, StatusReReading:
		return 4
	case StatusOnHold:
		return 3
	case StatusDropped:
		return 2
	case StatusPlanToRead:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the known statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusReading, StatusCompleted, StatusPlanToRead, StatusOnHold, StatusDropped, StatusReReading:
		return true
	}
	return false
}

// FieldName identifies a novel field that can be protected from automatic
// overwrite once the user edits it. Keeping this a closed set (instead of
// free-form strings) forces every new auto-updatable field through the
// reconciler explicitly.
type FieldName string

const (
	FieldTitle         FieldName = "title"
	FieldAuthor        FieldName = "author"
	FieldCoverURL      FieldName = "cover_url"
	FieldDescription   FieldName = "description"
	FieldSiteStatus    FieldName = "site_status"
	FieldTotalChapters FieldName = "total_chapters"
	FieldGenres        FieldName = "genres"
	FieldTags          FieldName = "tags"
	FieldMetadata      FieldName = "metadata"
	FieldStats         FieldName = "stats"
)

// AutoUpdatableFields returns the fields a passive re-scrape is allowed to
// touch, in stable order.
func AutoUpdatableFields() []FieldName {
	return []FieldName{
		FieldTitle, FieldAuthor, FieldCoverURL, FieldDescription, FieldSiteStatus,
		FieldTotalChapters, FieldGenres, FieldTags, FieldMetadata, FieldStats,
	}
}

// KnownField reports whether f is a member of the closed field set.
func KnownField(f FieldName) bool {
	for _, k := range AutoUpdatableFields() {
		if k == f {
			return true
		}
	}
	return false
}

// Novel is one tracked novel, keyed by "{shelfID}-{siteNovelID}".
// ID, ShelfID, SiteNovelID and AddedAt are immutable after creation;
// LastAccessedAt only moves forward.
type Novel struct {
	ID          string `json:"id"`
	ShelfID     string `json:"shelf_id"`
	SiteNovelID string `json:"site_novel_id"`

	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverURL      string `json:"cover_url"`
	Description   string `json:"description"`
	SourceURL     string `json:"source_url"`
	SiteStatus    string `json:"site_status"`
	TotalChapters int    `json:"total_chapters"`

	Genres []string `json:"genres"`
	Tags   []string `json:"tags"`

	LastReadChapter int           `json:"last_read_chapter"`
	LastReadURL     string        `json:"last_read_url"`
	ReadingStatus   ReadingStatus `json:"reading_status"`

	AddedAt        int64 `json:"added_at"`         // epoch millis
	LastAccessedAt int64 `json:"last_accessed_at"` // epoch millis

	EnhancedChaptersCount int `json:"enhanced_chapters_count"`

	// Open-ended site-specific extension bags.
	Metadata map[string]any     `json:"metadata,omitempty"`
	Stats    map[string]float64 `json:"stats,omitempty"`

	// Fields the user changed by hand. Anything listed here is immune to
	// scrape-origin updates until explicitly reset.
	EditedFields []FieldName `json:"edited_fields,omitempty"`
}

// NovelID builds the stable novel key from its provenance pair.
func NovelID(shelfID, siteNovelID string) string {
	return shelfID + "-" + siteNovelID
}

// HasEditedField reports whether f is protected by a prior manual edit.
func (n *Novel) HasEditedField(f FieldName) bool {
	for _, e := range n.EditedFields {
		if e == f {
			return true
		}
	}
	return false
}

// MarkEdited adds f to the edited set.
func (n *Novel) MarkEdited(f FieldName) {
	if n.HasEditedField(f) {
		return
	}
	n.EditedFields = append(n.EditedFields, f)
	sort.Slice(n.EditedFields, func(i, j int) bool { return n.EditedFields[i] < n.EditedFields[j] })
}

// ResetEdited removes the given fields from the edited set, re-opening them
// to automatic updates. With no arguments it clears the whole set.
func (n *Novel) ResetEdited(fields ...FieldName) {
	if len(fields) == 0 {
		n.EditedFields = nil
		return
	}
	drop := make(map[FieldName]bool, len(fields))
	for _, f := range fields {
		drop[f] = true
	}
	kept := n.EditedFields[:0]
	for _, e := range n.EditedFields {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		n.EditedFields = nil
		return
	}
	n.EditedFields = kept
}

// Clone returns a deep copy of the novel.
func (n *Novel) Clone() Novel {
	out := *n
	out.Genres = append([]string(nil), n.Genres...)
	out.Tags = append([]string(nil), n.Tags...)
	out.EditedFields = append([]FieldName(nil), n.EditedFields...)
	if n.Metadata != nil {
		out.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			out.Metadata[k] = v
		}
	}
	if n.Stats != nil {
		out.Stats = make(map[string]float64, len(n.Stats))
		for k, v := range n.Stats {
			out.Stats[k] = v
		}
	}
	return out
}

// PartialNovel is the loosely-typed metadata bag handed over by the
// site-specific extractors (or by a manual-edit request). Nil means
// "no information", never "clear this field".
type PartialNovel struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	CoverURL      *string `json:"cover_url,omitempty"`
	Description   *string `json:"description,omitempty"`
	SiteStatus    *string `json:"site_status,omitempty"`
	SourceURL     *string `json:"source_url,omitempty"`
	TotalChapters *int    `json:"total_chapters,omitempty"`

	Genres []string `json:"genres,omitempty"`
	Tags   []string `json:"tags,omitempty"`

	Metadata map[string]any     `json:"metadata,omitempty"`
	Stats    map[string]float64 `json:"stats,omitempty"`

	// Extra scrape context, not novel fields.
	MainNovelURL  *string `json:"main_novel_url,omitempty"`
	ChapterNumber *int    `json:"chapter_number,omitempty"`
}

// UnionStringSets merges b into a with set semantics, preserving the order of
// a and appending unseen members of b in their own order.
func UnionStringSets(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
