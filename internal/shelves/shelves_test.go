// file: internal/shelves/shelves_test.go
// version: 1.0.0
// guid: 2d1e0f9a-8b7c-4d6e-9f5a-4b3c2d1e0f9a

package shelves

import "testing"

func TestForURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantID  string
		wantNil bool
	}{
		{"fanfiction story page", "https://www.fanfiction.net/s/12345/1/Some-Story", "fanfiction", false},
		{"fanfiction mobile", "https://m.fanfiction.net/s/12345/1/", "fanfiction", false},
		{"royalroad fiction", "https://www.royalroad.com/fiction/21220/mother-of-learning", "royalroad", false},
		{"ao3 work", "https://archiveofourown.org/works/11478249/chapters/25740126", "ao3", false},
		{"scribblehub series", "https://www.scribblehub.com/series/10442/title/", "scribblehub", false},
		{"scheme-less url", "royalroad.com/fiction/21220", "royalroad", false},
		{"unknown host", "https://example.com/novel/1", "", true},
		{"empty url", "", "", true},
		{"lookalike host", "https://notroyalroad.com/fiction/1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shelf := ForURL(tt.url)
			if tt.wantNil {
				if shelf != nil {
					t.Errorf("ForURL(%q) = %v, want nil", tt.url, shelf.ID)
				}
				return
			}
			if shelf == nil {
				t.Fatalf("ForURL(%q) = nil, want %q", tt.url, tt.wantID)
			}
			if shelf.ID != tt.wantID {
				t.Errorf("ForURL(%q).ID = %q, want %q", tt.url, shelf.ID, tt.wantID)
			}
		})
	}
}

func TestExtractNovelID(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		shelf string
		want  string
	}{
		{"fanfiction", "https://www.fanfiction.net/s/12345/7/Chapter-Seven", "fanfiction", "12345"},
		{"royalroad", "https://www.royalroad.com/fiction/21220/mother-of-learning/chapter/301778", "royalroad", "21220"},
		{"ao3", "https://archiveofourown.org/works/11478249", "ao3", "11478249"},
		{"novelupdates slug", "https://www.novelupdates.com/series/reverend-insanity/", "novelupdates", "reverend-insanity"},
		{"no id in url", "https://www.fanfiction.net/communities/", "fanfiction", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shelf, ok := ByID(tt.shelf)
			if !ok {
				t.Fatalf("unknown shelf %q", tt.shelf)
			}
			if got := ExtractNovelID(tt.url, shelf); got != tt.want {
				t.Errorf("ExtractNovelID = %q, want %q", got, tt.want)
			}
		})
	}

	if got := ExtractNovelID("https://x.com/1", nil); got != "" {
		t.Errorf("nil shelf should extract nothing, got %q", got)
	}
}

func TestRegistryIsStable(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatal("registry should not be empty")
	}
	seen := map[string]bool{}
	for _, s := range all {
		if seen[s.ID] {
			t.Errorf("duplicate shelf id %q", s.ID)
		}
		seen[s.ID] = true
		if len(s.Hosts) == 0 {
			t.Errorf("shelf %q has no hosts", s.ID)
		}
	}
}
