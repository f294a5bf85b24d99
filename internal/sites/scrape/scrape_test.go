package scrape_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gabriel/manga-link-finder/internal/fetch/fetchtest"
	"github.com/gabriel/manga-link-finder/internal/sites/scrape"
)

type recordingVerifier struct {
	accept map[string]bool
	seen   []string
}

func (v *recordingVerifier) Verify(_ context.Context, _ string, rawURL string, _ string) bool {
	v.seen = append(v.seen, rawURL)
	return v.accept[rawURL]
}

const searchPage = `<html><body>
<a href="/series/other-story">Other Story</a>
<a href="/series/solo-leveling-ragnarok">Solo Leveling: Ragnarok</a>
<a href="https://omegascans.org/series/solo-leveling">Solo Leveling</a>
<a href="/series/solo-leveling-ragnarok">duplicate</a>
<a href="/tags/solo-leveling">tag page</a>
<a>no href</a>
</body></html>`

func TestAnchorsResolvesAndDeduplicates(t *testing.T) {
	anchors, err := scrape.Anchors(searchPage, "https://omegascans.org/?s=solo", "/series/")
	if err != nil {
		t.Fatalf("anchors: %v", err)
	}
	if len(anchors) != 3 {
		t.Fatalf("expected 3 series anchors, got %d: %+v", len(anchors), anchors)
	}
	if anchors[0].URL != "https://omegascans.org/series/other-story" {
		t.Fatalf("expected relative href resolved, got %q", anchors[0].URL)
	}
	if anchors[1].Text != "Solo Leveling: Ragnarok" {
		t.Fatalf("unexpected anchor text %q", anchors[1].Text)
	}
}

func TestMatchSlugUsesLinkOrText(t *testing.T) {
	anchors := []scrape.Anchor{
		{URL: "https://site.test/webtoon/abc123/", Text: "Tower of God"},
		{URL: "https://site.test/webtoon/TOWER-OF-GOD/", Text: ""},
		{URL: "https://site.test/webtoon/other/", Text: "Other"},
	}

	matches := scrape.MatchSlug(anchors, "tower-of-god")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %v", matches)
	}
	if scrape.MatchSlug(anchors, "") != nil {
		t.Fatalf("expected empty slug to match nothing")
	}
}

func TestRunReturnsFirstVerifiedCandidate(t *testing.T) {
	searchURL := "https://omegascans.org/?s=Solo+Leveling"
	fetcher := fetchtest.New(map[string]fetchtest.Route{
		searchURL: {Status: http.StatusOK, Body: searchPage},
	})
	verifier := &recordingVerifier{accept: map[string]bool{
		"https://omegascans.org/series/solo-leveling": true,
	}}

	search := scrape.Search{SiteKey: "omegascans", PathMarker: "/series/", Fetcher: fetcher, Verifier: verifier}
	link, ok := search.Run(context.Background(), searchURL, "solo-leveling", "Solo Leveling")
	if !ok || link != "https://omegascans.org/series/solo-leveling" {
		t.Fatalf("unexpected result %q %v", link, ok)
	}
	if len(verifier.seen) != 2 || verifier.seen[0] != "https://omegascans.org/series/solo-leveling-ragnarok" {
		t.Fatalf("expected candidates verified in document order, got %v", verifier.seen)
	}
}

func TestRunTreatsFailedSearchAsNoResult(t *testing.T) {
	searchURL := "https://omegascans.org/?s=x"
	fetcher := fetchtest.New(map[string]fetchtest.Route{
		searchURL: {Status: http.StatusServiceUnavailable},
	})
	verifier := &recordingVerifier{}

	search := scrape.Search{SiteKey: "omegascans", PathMarker: "/series/", Fetcher: fetcher, Verifier: verifier}
	if _, ok := search.Run(context.Background(), searchURL, "x", "x"); ok {
		t.Fatalf("expected no result")
	}
	if len(verifier.seen) != 0 {
		t.Fatalf("expected no verification attempts")
	}
}
