// file: internal/stale/stale_test.go
// version: 1.0.0
// guid: 2e1f0a9b-8c7d-4e6f-5a4b-3c2d1e0f9a8b

package stale

import (
	"testing"

	"github.com/jdfalk/shelfkeeper/internal/models"
)

const day = int64(24 * 60 * 60 * 1000)

func settings(days int) models.LibrarySettings {
	return models.LibrarySettings{AutoHoldEnabled: true, AutoHoldDays: days}
}

func snapshotWith(novels ...models.Novel) *models.LibrarySnapshot {
	s := models.NewLibrarySnapshot()
	for _, n := range novels {
		s.Novels[n.ID] = n
	}
	return s
}

func TestApplyStaleTransitions(t *testing.T) {
	now := 100 * day
	tests := []struct {
		name       string
		novel      models.Novel
		wantStatus models.ReadingStatus
		wantBump   bool
	}{
		{
			name:       "barely started goes back to plan to read",
			novel:      models.Novel{ID: "a-1", ReadingStatus: models.StatusReading, LastAccessedAt: now - 10*day, LastReadChapter: 0},
			wantStatus: models.StatusPlanToRead,
			wantBump:   true,
		},
		{
			name:       "chapter one still counts as barely started",
			novel:      models.Novel{ID: "a-2", ReadingStatus: models.StatusReading, LastAccessedAt: now - 10*day, LastReadChapter: 1},
			wantStatus: models.StatusPlanToRead,
			wantBump:   true,
		},
		{
			name:       "mid book goes on hold",
			novel:      models.Novel{ID: "a-3", ReadingStatus: models.StatusReading, LastAccessedAt: now - 10*day, LastReadChapter: 40},
			wantStatus: models.StatusOnHold,
			wantBump:   true,
		},
		{
			name:       "recent reading untouched",
			novel:      models.Novel{ID: "a-4", ReadingStatus: models.StatusReading, LastAccessedAt: now - 3*day, LastReadChapter: 40},
			wantStatus: models.StatusReading,
		},
		{
			name:       "recently added counts as activity",
			novel:      models.Novel{ID: "a-5", ReadingStatus: models.StatusReading, LastAccessedAt: now - 30*day, AddedAt: now - 2*day, LastReadChapter: 40},
			wantStatus: models.StatusReading,
		},
		{
			name:       "completed never touched",
			novel:      models.Novel{ID: "a-6", ReadingStatus: models.StatusCompleted, LastAccessedAt: now - 100*day},
			wantStatus: models.StatusCompleted,
		},
		{
			name:       "dropped never touched",
			novel:      models.Novel{ID: "a-7", ReadingStatus: models.StatusDropped, LastAccessedAt: now - 100*day},
			wantStatus: models.StatusDropped,
		},
		{
			name:       "user on hold never touched",
			novel:      models.Novel{ID: "a-8", ReadingStatus: models.StatusOnHold, LastAccessedAt: now - 100*day},
			wantStatus: models.StatusOnHold,
		},
		{
			name: "extractor current chapter counts as progress",
			novel: models.Novel{ID: "a-9", ReadingStatus: models.StatusReading, LastAccessedAt: now - 10*day,
				LastReadChapter: 0, Stats: map[string]float64{"current_chapter": 12}},
			wantStatus: models.StatusOnHold,
			wantBump:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshotWith(tt.novel)
			Apply(s, settings(7), now)
			got := s.Novels[tt.novel.ID]
			if got.ReadingStatus != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.ReadingStatus, tt.wantStatus)
			}
			if tt.wantBump && got.LastAccessedAt != now {
				t.Errorf("LastAccessedAt = %d, want bump to %d", got.LastAccessedAt, now)
			}
			if !tt.wantBump && got.LastAccessedAt == now && tt.novel.LastAccessedAt != now {
				t.Error("untouched novel should not have its access time bumped")
			}
		})
	}
}

// Reading, accessed 10 days ago, chapter 0, threshold 7 days.
func TestTenDayOldUnreadGoesToPlanToRead(t *testing.T) {
	now := int64(1_700_000_000_000)
	s := snapshotWith(models.Novel{
		ID: "a-1", ReadingStatus: models.StatusReading,
		LastAccessedAt: now - 10*day, LastReadChapter: 0,
	})
	res := Apply(s, settings(7), now)
	if s.Novels["a-1"].ReadingStatus != models.StatusPlanToRead {
		t.Errorf("status = %q", s.Novels["a-1"].ReadingStatus)
	}
	if res.ToPlanToRead != 1 || res.ToOnHold != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	now := 100 * day
	s := snapshotWith(models.Novel{
		ID: "a-1", ReadingStatus: models.StatusReading,
		LastAccessedAt: now - 10*day, LastReadChapter: 40,
	})

	first := Apply(s, settings(7), now)
	second := Apply(s, settings(7), now)

	if first.ToOnHold != 1 {
		t.Errorf("first pass = %+v", first)
	}
	if second.ToOnHold != 0 || second.ToPlanToRead != 0 {
		t.Errorf("second pass should change nothing, got %+v", second)
	}
}

func TestApplyDisabled(t *testing.T) {
	now := 100 * day
	s := snapshotWith(models.Novel{
		ID: "a-1", ReadingStatus: models.StatusReading,
		LastAccessedAt: now - 50*day,
	})
	res := Apply(s, models.LibrarySettings{AutoHoldEnabled: false, AutoHoldDays: 7}, now)
	if res.ToOnHold != 0 || res.ToPlanToRead != 0 {
		t.Errorf("disabled pass changed novels: %+v", res)
	}
	if s.Novels["a-1"].ReadingStatus != models.StatusReading {
		t.Error("disabled pass must not transition")
	}
}
