// file: internal/dedupe/normalize.go
// version: 1.1.0
// guid: 6f5a4b3c-2d1e-4f0a-9b8c-7d6e5f4a3b2c

package dedupe

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTitle canonicalizes a title for duplicate grouping: diacritics
// stripped, lowercased, punctuation removed, whitespace collapsed.
func NormalizeTitle(title string) string {
	if folded, _, err := transform.String(stripMarks, title); err == nil {
		title = folded
	}
	title = strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(title))
	lastSpace := true
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// TitleMatch is one near-title candidate with its fuzzy rank (lower is a
// closer match).
type TitleMatch struct {
	NovelID string `json:"novel_id"`
	Title   string `json:"title"`
	Rank    int    `json:"rank"`
}

// rankNearTitles returns fuzzy near-matches of title among the candidates,
// closest first. Exact normalized duplicates are handled by the grouping
// pass; this catches the "same novel, slightly different scraped title"
// cases so callers can surface them for review.
func rankNearTitles(title string, candidates map[string]string, maxRank int) []TitleMatch {
	q := NormalizeTitle(title)
	if q == "" {
		return nil
	}
	var out []TitleMatch
	for id, t := range candidates {
		target := NormalizeTitle(t)
		if target == "" || target == q {
			continue
		}
		// Subsequence matching is directional; scraped variants can be
		// longer or shorter than the stored title, so try both ways.
		rank := fuzzy.RankMatchNormalizedFold(q, target)
		if r := fuzzy.RankMatchNormalizedFold(target, q); r >= 0 && (rank < 0 || r < rank) {
			rank = r
		}
		if rank >= 0 && rank <= maxRank {
			out = append(out, TitleMatch{NovelID: id, Title: t, Rank: rank})
		}
	}
	// closest first, id as stable tie-break
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if b.Rank < a.Rank || (b.Rank == a.Rank && b.NovelID < a.NovelID) {
				out[j-1], out[j] = b, a
			} else {
				break
			}
		}
	}
	return out
}
