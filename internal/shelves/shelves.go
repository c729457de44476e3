// file: internal/shelves/shelves.go
// version: 1.2.0
// guid: 5b4c3d2e-1f0a-4b9c-8d7e-6f5a4b3c2d1e

package shelves

import (
	"regexp"
	"strings"
)

// Shelf describes one known reading site: stable id, display metadata, and
// the pattern that pulls the site-local novel id out of a page URL.
type Shelf struct {
	ID          string
	Name        string
	Hosts       []string
	Color       string // display accent used by the UI layer
	novelIDExpr *regexp.Regexp
}

// registry is built once at startup; shelves have no mutable state.
var registry = []Shelf{
	{
		ID:          "fanfiction",
		Name:        "FanFiction.net",
		Hosts:       []string{"fanfiction.net", "m.fanfiction.net"},
		Color:       "#2a5caa",
		novelIDExpr: regexp.MustCompile(`/s/(\d+)`),
	},
	{
		ID:          "royalroad",
		Name:        "Royal Road",
		Hosts:       []string{"royalroad.com"},
		Color:       "#1f8b4c",
		novelIDExpr: regexp.MustCompile(`/fiction/(\d+)`),
	},
	{
		ID:          "ao3",
		Name:        "Archive of Our Own",
		Hosts:       []string{"archiveofourown.org"},
		Color:       "#990000",
		novelIDExpr: regexp.MustCompile(`/works/(\d+)`),
	},
	{
		ID:          "scribblehub",
		Name:        "Scribble Hub",
		Hosts:       []string{"scribblehub.com"},
		Color:       "#5a3e85",
		novelIDExpr: regexp.MustCompile(`/series/(\d+)`),
	},
	{
		ID:          "webnovel",
		Name:        "Webnovel",
		Hosts:       []string{"webnovel.com"},
		Color:       "#e26a2c",
		novelIDExpr: regexp.MustCompile(`(?:/book/|_)(\d+)`),
	},
	{
		ID:          "novelupdates",
		Name:        "Novel Updates",
		Hosts:       []string{"novelupdates.com"},
		Color:       "#336699",
		novelIDExpr: regexp.MustCompile(`/series/([a-z0-9-]+)`),
	},
}

// All returns every registered shelf.
func All() []Shelf {
	out := make([]Shelf, len(registry))
	copy(out, registry)
	return out
}

// ByID looks a shelf up by its stable id.
func ByID(id string) (*Shelf, bool) {
	for i := range registry {
		if registry[i].ID == id {
			return &registry[i], true
		}
	}
	return nil, false
}

// ForURL returns the shelf whose host matches the URL, or nil when no shelf
// claims it. "No match" is the only failure mode.
func ForURL(rawURL string) *Shelf {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}
	for i := range registry {
		for _, h := range registry[i].Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return &registry[i]
			}
		}
	}
	return nil
}

// ExtractNovelID pulls the site-local novel id out of a URL belonging to the
// given shelf. Returns "" when the URL carries no id.
func ExtractNovelID(rawURL string, shelf *Shelf) string {
	if shelf == nil || shelf.novelIDExpr == nil {
		return ""
	}
	m := shelf.novelIDExpr.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// hostOf extracts a lowercased hostname without relying on a full URL parse;
// scraped URLs are occasionally scheme-less.
func hostOf(rawURL string) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	return s
}
