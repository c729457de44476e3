// file: internal/reconcile/progress.go
// version: 1.1.0
// guid: 4d3e2f1a-0b9c-4d8e-7f6a-5b4c3d2e1f0a

package reconcile

import "github.com/jdfalk/shelfkeeper/internal/models"

// UpdateReadingProgress records a reading event. These are the only two
// status transitions tied to reading activity:
//
//   - OnHold moves back to Reading on any chapter >= 1
//   - Reading (or ReReading) moves to Completed when the novel's chapter
//     count is known and the read chapter reaches it
//
// Every other status is left to explicit user action. now is epoch millis.
func UpdateReadingProgress(n *models.Novel, chapterNumber int, url string, now int64) {
	n.LastReadChapter = chapterNumber
	if url != "" {
		n.LastReadURL = url
	}

	if n.ReadingStatus == models.StatusOnHold && chapterNumber >= 1 {
		n.ReadingStatus = models.StatusReading
	}
	if n.TotalChapters > 0 && chapterNumber >= n.TotalChapters &&
		(n.ReadingStatus == models.StatusReading || n.ReadingStatus == models.StatusReReading) {
		n.ReadingStatus = models.StatusCompleted
	}

	if now > n.LastAccessedAt {
		n.LastAccessedAt = now
	}
}
