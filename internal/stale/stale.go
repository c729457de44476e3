// file: internal/stale/stale.go
// version: 1.1.0
// guid: 7d6e5f4a-3b2c-4d1e-8f0a-9b8c7d6e5f4a

// Package stale moves long-untouched novels out of the Reading status. One
// pass runs per library load; settings are handed in per pass and never
// cached across passes.
package stale

import (
	"github.com/jdfalk/shelfkeeper/internal/models"
)

const millisPerDay = int64(24 * 60 * 60 * 1000)

// Result reports what one pass changed.
type Result struct {
	ToPlanToRead int      `json:"to_plan_to_read"`
	ToOnHold     int      `json:"to_on_hold"`
	Changed      []string `json:"changed,omitempty"`
}

// Apply mutates the snapshot in place. A novel in Reading whose last activity
// (the later of lastAccessedAt and addedAt) is at least the threshold ago
// moves to PlanToRead when the user barely started it (chapter <= 1) and to
// OnHold otherwise. The access time is bumped so the pass is idempotent:
// running again with no elapsed time changes nothing. Completed, Dropped and
// user-set OnHold/PlanToRead are never touched.
func Apply(snapshot *models.LibrarySnapshot, settings models.LibrarySettings, now int64) Result {
	var res Result
	if !settings.AutoHoldEnabled || settings.AutoHoldDays <= 0 {
		return res
	}
	threshold := int64(settings.AutoHoldDays) * millisPerDay

	for id, n := range snapshot.Novels {
		if n.ReadingStatus != models.StatusReading {
			continue
		}
		lastActivity := n.LastAccessedAt
		if n.AddedAt > lastActivity {
			lastActivity = n.AddedAt
		}
		if now-lastActivity < threshold {
			continue
		}

		if effectiveChapter(n) <= 1 {
			n.ReadingStatus = models.StatusPlanToRead
			res.ToPlanToRead++
		} else {
			n.ReadingStatus = models.StatusOnHold
			res.ToOnHold++
		}
		n.LastAccessedAt = now
		snapshot.Novels[id] = n
		res.Changed = append(res.Changed, id)
	}
	return res
}

// effectiveChapter is the furthest chapter the user has plausibly reached:
// recorded progress, or the extractor-reported current chapter when that is
// ahead of it.
func effectiveChapter(n models.Novel) int {
	ch := n.LastReadChapter
	if cur, ok := n.Stats["current_chapter"]; ok && int(cur) > ch {
		ch = int(cur)
	}
	return ch
}
