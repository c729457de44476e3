// file: internal/dedupe/dedupe_test.go
// version: 1.1.0
// guid: 3c2d1e0f-9a8b-4c7d-6e5f-4a3b2c1d0e9f

package dedupe

import (
	"testing"

	"github.com/jdfalk/shelfkeeper/internal/models"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Mother of Learning", "mother of learning"},
		{"  The  GAM3!!  ", "the gam3"},
		{"Re:Zero − Starting Life", "re zero starting life"},
		{"Café du Monde", "cafe du monde"},
		{"", ""},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func snapshotWith(novels ...models.Novel) *models.LibrarySnapshot {
	s := models.NewLibrarySnapshot()
	for _, n := range novels {
		s.Novels[n.ID] = n
	}
	return s
}

func TestFindDuplicatesSiteID(t *testing.T) {
	s := snapshotWith(
		models.Novel{ID: "fanfiction-123", ShelfID: "fanfiction", SiteNovelID: "123", Title: "A"},
		models.Novel{ID: "fanfiction-123-copy", ShelfID: "fanfiction", SiteNovelID: "123", Title: "B"},
		models.Novel{ID: "fanfiction-999", ShelfID: "fanfiction", SiteNovelID: "999", Title: "C"},
	)

	groups := FindDuplicates(s, "")
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	g := groups[0]
	if g.Reason != SameSiteID || g.ShelfID != "fanfiction" || len(g.IDs) != 2 {
		t.Errorf("group = %+v", g)
	}
}

func TestFindDuplicatesTitleOnlyForUngrouped(t *testing.T) {
	// Two copies share a site id AND a title with a third record; the third
	// must only appear via the weaker title signal if it was not already in
	// the site-id group.
	s := snapshotWith(
		models.Novel{ID: "a-1", ShelfID: "a", SiteNovelID: "1", Title: "Same Title"},
		models.Novel{ID: "a-1b", ShelfID: "a", SiteNovelID: "1", Title: "Same Title"},
		models.Novel{ID: "a-2", ShelfID: "a", SiteNovelID: "2", Title: "Same Title"},
		models.Novel{ID: "a-3", ShelfID: "a", SiteNovelID: "3", Title: "same, title!"},
	)

	groups := FindDuplicates(s, "")
	if len(groups) != 2 {
		t.Fatalf("groups = %+v, want site-id group and title group", groups)
	}
	var siteG, titleG *Group
	for i := range groups {
		switch groups[i].Reason {
		case SameSiteID:
			siteG = &groups[i]
		case SimilarTitle:
			titleG = &groups[i]
		}
	}
	if siteG == nil || titleG == nil {
		t.Fatalf("missing a group: %+v", groups)
	}
	if len(siteG.IDs) != 2 {
		t.Errorf("site-id group = %v", siteG.IDs)
	}
	// a-2 and a-3 normalize to the same title and were not site-id grouped.
	if len(titleG.IDs) != 2 || titleG.IDs[0] != "a-2" || titleG.IDs[1] != "a-3" {
		t.Errorf("title group = %v", titleG.IDs)
	}
}

func TestFindDuplicatesShelfFilter(t *testing.T) {
	s := snapshotWith(
		models.Novel{ID: "a-1", ShelfID: "a", SiteNovelID: "1", Title: "X"},
		models.Novel{ID: "a-1b", ShelfID: "a", SiteNovelID: "1", Title: "X"},
		models.Novel{ID: "b-1", ShelfID: "b", SiteNovelID: "1", Title: "X"},
		models.Novel{ID: "b-1b", ShelfID: "b", SiteNovelID: "1", Title: "X"},
	)
	groups := FindDuplicates(s, "b")
	if len(groups) != 1 || groups[0].ShelfID != "b" {
		t.Errorf("filtered groups = %+v", groups)
	}
}

func TestScoreAndPickKeeper(t *testing.T) {
	low := models.Novel{ID: "a-1", ShelfID: "a", SiteNovelID: "1", EnhancedChaptersCount: 2}
	high := models.Novel{ID: "a-1b", ShelfID: "a", SiteNovelID: "1", EnhancedChaptersCount: 5}
	s := snapshotWith(low, high)

	if Score(low) != 20 || Score(high) != 50 {
		t.Errorf("scores = %d, %d", Score(low), Score(high))
	}
	if got := PickKeeper(s, []string{"a-1", "a-1b"}); got != "a-1b" {
		t.Errorf("keeper = %q, want a-1b", got)
	}
}

func TestScoreWeights(t *testing.T) {
	n := models.Novel{
		EnhancedChaptersCount: 1, // 10
		LastReadChapter:       4, // 4
		CoverURL:              "c", // 5
		Description:           "d", // 3
		Author:                "a", // 2
		LastAccessedAt:        1, // 1
	}
	if got := Score(n); got != 25 {
		t.Errorf("Score = %d, want 25", got)
	}
}

func TestFold(t *testing.T) {
	keeper := models.Novel{
		ID: "a-1b", ShelfID: "a", SiteNovelID: "1",
		Title: "Keep", EnhancedChaptersCount: 5,
		LastReadChapter: 3, LastReadURL: "u3",
		ReadingStatus: models.StatusReading,
		Genres:        []string{"Action"},
		AddedAt:       200, LastAccessedAt: 300,
	}
	loser := models.Novel{
		ID: "a-1", ShelfID: "a", SiteNovelID: "1",
		Title: "Lose", EnhancedChaptersCount: 2,
		LastReadChapter: 10, LastReadURL: "u10",
		ReadingStatus: models.StatusCompleted,
		TotalChapters: 50,
		CoverURL:      "cover", Description: "desc",
		Genres:  []string{"Drama"},
		AddedAt: 100, LastAccessedAt: 500,
		EditedFields: []models.FieldName{models.FieldTitle},
	}

	out := Fold(keeper, []models.Novel{loser})

	if out.ID != "a-1b" || out.Title != "Keep" {
		t.Errorf("keeper identity lost: %+v", out)
	}
	if out.LastReadChapter != 10 || out.LastReadURL != "u10" {
		t.Errorf("progress pair = %d/%q", out.LastReadChapter, out.LastReadURL)
	}
	if out.EnhancedChaptersCount != 5 {
		t.Errorf("enhanced = %d, want 5", out.EnhancedChaptersCount)
	}
	if out.ReadingStatus != models.StatusCompleted {
		t.Errorf("status = %q, completed should outrank reading", out.ReadingStatus)
	}
	if out.TotalChapters != 50 || out.CoverURL != "cover" || out.Description != "desc" {
		t.Errorf("fill-in fields: %+v", out)
	}
	if len(out.Genres) != 2 {
		t.Errorf("genres = %v", out.Genres)
	}
	if out.AddedAt != 100 || out.LastAccessedAt != 500 {
		t.Errorf("timestamps = %d/%d", out.AddedAt, out.LastAccessedAt)
	}
	if !out.HasEditedField(models.FieldTitle) {
		t.Error("edit protection should carry over from losers")
	}
}

func TestMergeChapterMapsPrefersEnhanced(t *testing.T) {
	a := models.ChapterMap{
		"1": {Title: "One", IsEnhanced: false},
		"2": {Title: "Two", IsEnhanced: true, EnhancedAt: 10},
	}
	b := models.ChapterMap{
		"1": {Title: "One enhanced", IsEnhanced: true, EnhancedAt: 20},
		"2": {Title: "Two plain"},
		"3": {Title: "Three"},
	}

	out := MergeChapterMaps(a, b)
	if len(out) != 3 {
		t.Fatalf("merged size = %d", len(out))
	}
	if !out["1"].IsEnhanced || out["1"].Title != "One enhanced" {
		t.Errorf("chapter 1 = %+v", out["1"])
	}
	if !out["2"].IsEnhanced || out["2"].Title != "Two" {
		t.Errorf("chapter 2 = %+v", out["2"])
	}
}

func TestNearTitleMatches(t *testing.T) {
	s := snapshotWith(
		models.Novel{ID: "a-1", ShelfID: "a", SiteNovelID: "1", Title: "Mother of Learning"},
		models.Novel{ID: "a-2", ShelfID: "a", SiteNovelID: "2", Title: "Mother of Learnin"},
		models.Novel{ID: "a-3", ShelfID: "a", SiteNovelID: "3", Title: "Completely Different"},
		models.Novel{ID: "b-1", ShelfID: "b", SiteNovelID: "1", Title: "Mother of Learning!"},
	)

	matches := NearTitleMatches(s, "a-1", 3)
	if len(matches) != 1 || matches[0].NovelID != "a-2" {
		t.Errorf("matches = %+v, want only a-2 (same shelf, near title)", matches)
	}
}
