// file: internal/backup/backup_test.go
// version: 1.1.0
// guid: 4b3c2d1e-0f9a-4b8c-7d6e-5f4a3b2c1d0e

package backup

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/jdfalk/shelfkeeper/internal/models"
)

func novel(shelf, site string, mutate func(*models.Novel)) models.Novel {
	n := models.Novel{
		ID:            models.NovelID(shelf, site),
		ShelfID:       shelf,
		SiteNovelID:   site,
		Title:         "Title " + site,
		ReadingStatus: models.StatusPlanToRead,
		AddedAt:       1000,
	}
	if mutate != nil {
		mutate(&n)
	}
	return n
}

func library(novels ...models.Novel) *models.LibrarySnapshot {
	s := models.NewLibrarySnapshot()
	for _, n := range novels {
		s.Novels[n.ID] = n
	}
	s.RecomputeShelfCounts(1000)
	return s
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{nope"},
		{"missing library", `{"version":"1.0"}`},
		{"missing version", `{"library":{"novels":{}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, ErrInvalidBackup) {
				t.Errorf("Decode error = %v, want ErrInvalidBackup", err)
			}
		})
	}
}

func TestExportRoundTripReplace(t *testing.T) {
	lib := library(
		novel("fanfiction", "1", func(n *models.Novel) { n.LastReadChapter = 5 }),
		novel("royalroad", "2", nil),
	)
	chapters := map[string]models.ChapterMap{
		"fanfiction-1": {"1": {Title: "One", IsEnhanced: true}},
	}

	payload := Export(lib, chapters, 2000)
	data, err := payload.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got, gotChapters, sum := Import(models.NewLibrarySnapshot(), nil, decoded, ModeReplace, 3000)
	if sum.Errors != 0 || sum.Imported != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if !reflect.DeepEqual(got.Novels, lib.Novels) {
		t.Errorf("round-trip novels differ:\ngot  %+v\nwant %+v", got.Novels, lib.Novels)
	}
	if !reflect.DeepEqual(gotChapters, chapters) {
		t.Errorf("round-trip chapters differ: %+v", gotChapters)
	}
	if got.Shelves["fanfiction"].NovelCount != 1 || got.Shelves["royalroad"].NovelCount != 1 {
		t.Errorf("shelf counts = %+v", got.Shelves)
	}
}

func TestExportDoesNotAliasLibrary(t *testing.T) {
	lib := library(novel("a", "1", nil))
	p := Export(lib, nil, 2000)
	n := p.Library.Novels["a-1"]
	n.Title = "mutated"
	p.Library.Novels["a-1"] = n
	if lib.Novels["a-1"].Title == "mutated" {
		t.Error("export must deep-copy the snapshot")
	}
}

func TestImportAppendSkipsExisting(t *testing.T) {
	local := library(novel("a", "1", func(n *models.Novel) { n.Title = "Local Title" }))
	imported := Export(library(
		novel("a", "1", func(n *models.Novel) { n.Title = "Imported Title" }),
		novel("a", "2", nil),
	), nil, 2000)

	got, _, sum := Import(local, nil, imported, ModeAppend, 3000)

	if sum.Imported != 1 || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if got.Novels["a-1"].Title != "Local Title" {
		t.Error("append must never touch existing novels")
	}
	if _, ok := got.Novels["a-2"]; !ok {
		t.Error("append should add unseen novels")
	}
}

func TestImportSmartMerge(t *testing.T) {
	local := library(novel("a", "1", func(n *models.Novel) {
		n.Title = "Local"
		n.Description = ""
		n.LastReadChapter = 3
		n.EnhancedChaptersCount = 1
		n.Genres = []string{"Action"}
		n.AddedAt = 5000
		n.LastAccessedAt = 5000
		n.ReadingStatus = models.StatusReading
	}))
	localChapters := map[string]models.ChapterMap{
		"a-1": {"1": {Title: "One"}},
	}

	imported := Export(library(novel("a", "1", func(n *models.Novel) {
		n.Title = "Imported"
		n.Description = "From backup"
		n.LastReadChapter = 9
		n.LastReadURL = "u9"
		n.EnhancedChaptersCount = 4
		n.Genres = []string{"Drama"}
		n.AddedAt = 1000 // earlier install
		n.LastAccessedAt = 9000
		n.ReadingStatus = models.StatusCompleted
	})), map[string]models.ChapterMap{
		"a-1": {"1": {Title: "One enhanced", IsEnhanced: true}, "2": {Title: "Two"}},
	}, 2000)

	got, chapters, sum := Import(local, localChapters, imported, ModeSmartMerge, 10000)
	if sum.Updated != 1 || sum.Errors != 0 {
		t.Fatalf("summary = %+v", sum)
	}

	n := got.Novels["a-1"]
	if n.Title != "Imported" {
		t.Errorf("valid imported title should apply, got %q", n.Title)
	}
	if n.Description != "From backup" {
		t.Errorf("description = %q", n.Description)
	}
	if n.LastReadChapter != 9 || n.LastReadURL != "u9" {
		t.Errorf("progress = %d/%q, want max", n.LastReadChapter, n.LastReadURL)
	}
	if n.EnhancedChaptersCount != 4 {
		t.Errorf("enhanced = %d, want max 4", n.EnhancedChaptersCount)
	}
	if n.AddedAt != 1000 {
		t.Errorf("addedAt = %d, want earliest 1000", n.AddedAt)
	}
	if n.LastAccessedAt < 9000 {
		t.Errorf("lastAccessedAt = %d, want at least 9000", n.LastAccessedAt)
	}
	if n.ReadingStatus != models.StatusCompleted {
		t.Errorf("status = %q, completed should win", n.ReadingStatus)
	}
	if len(n.Genres) != 2 {
		t.Errorf("genres = %v, want union", n.Genres)
	}

	ch := chapters["a-1"]
	if len(ch) != 2 || !ch["1"].IsEnhanced {
		t.Errorf("chapters = %+v, want enhanced copy preferred", ch)
	}
}

func TestImportSmartMergeRespectsEditedFields(t *testing.T) {
	local := library(novel("a", "1", func(n *models.Novel) {
		n.Title = "My Title"
		n.EditedFields = []models.FieldName{models.FieldTitle}
	}))
	imported := Export(library(novel("a", "1", func(n *models.Novel) {
		n.Title = "Backup Title"
	})), nil, 2000)

	got, _, _ := Import(local, nil, imported, ModeSmartMerge, 3000)
	if got.Novels["a-1"].Title != "My Title" {
		t.Errorf("edited title overwritten by import: %q", got.Novels["a-1"].Title)
	}
}

func TestImportCountsBadNovels(t *testing.T) {
	p := &Payload{
		Library: library(
			novel("a", "1", nil),
			novel("a", "2", func(n *models.Novel) { n.SiteNovelID = "" }),
		),
		Version: FormatVersion,
	}
	// Corrupt a second entry: key disagrees with the record id.
	bad := novel("a", "3", nil)
	p.Library.Novels["a-999"] = bad

	got, _, sum := Import(models.NewLibrarySnapshot(), nil, p, ModeSmartMerge, 1000)
	if sum.Errors != 2 {
		t.Errorf("errors = %d, want 2 (%v)", sum.Errors, sum.Messages)
	}
	if sum.Imported != 1 {
		t.Errorf("imported = %d, want 1", sum.Imported)
	}
	if len(got.Novels) != 1 {
		t.Errorf("novels = %d, want only the valid one", len(got.Novels))
	}
}

func TestImportDoesNotMutateInputs(t *testing.T) {
	local := library(novel("a", "1", func(n *models.Novel) { n.Genres = []string{"Action"} }))
	p := Export(library(novel("a", "1", func(n *models.Novel) { n.Genres = []string{"Drama"} })), nil, 2000)

	before, _ := json.Marshal(local)
	pBefore, _ := json.Marshal(p)

	Import(local, nil, p, ModeSmartMerge, 3000)

	after, _ := json.Marshal(local)
	pAfter, _ := json.Marshal(p)
	if string(before) != string(after) {
		t.Error("import mutated the local snapshot")
	}
	if string(pBefore) != string(pAfter) {
		t.Error("import mutated the payload")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":            ModeSmartMerge,
		"smart":       ModeSmartMerge,
		"smart_merge": ModeSmartMerge,
		"merge":       ModeSmartMerge,
		"replace":     ModeReplace,
		"append":      ModeAppend,
	} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("ParseMode should reject unknown modes")
	}
}
