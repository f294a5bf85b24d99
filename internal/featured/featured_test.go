package featured_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gabriel/manga-link-finder/internal/featured"
	"github.com/gabriel/manga-link-finder/internal/fetch"
)

const asuraPage = `<html><body>
<div class="grid">
  <div class="flex">
    <a href="/series/solo-leveling-abc123">
      <img src="/images/solo.webp" />
      <div class="block"><span class="block">Solo Leveling</span></div>
    </a>
  </div>
  <div class="flex">
    <a href="/series/nano-machine-def456"><img src="https://cdn.example.com/nano.webp" />Nano   Machine</a>
  </div>
  <div class="flex"><a href="/genres/action">Action</a></div>
</div>
<a class="flex bg-themecolor" href="/series?page=2">Next</a>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *featured.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fetcher := fetch.NewClient(fetch.Config{}, server.Client(), nil)
	return featured.NewClient(fetcher, featured.Options{
		OmegascansAPIURL:  server.URL + "/omega-api",
		OmegascansSiteURL: "https://omegascans.org",
		AsurascansURL:     server.URL + "/asura",
	}, nil)
}

func TestOmegascansMapsSeriesAndStripsMarkup(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/omega-api/query" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"title":" Example Series ","series_slug":"example-series","thumbnail":"https://media.omegascans.org/a.webp","description":"<p>A <b>bold</b> story.</p>"},
			{"title":"No Slug","series_slug":"","thumbnail":"","description":""}
		]}`))
	})

	items, err := client.Omegascans(context.Background())
	if err != nil {
		t.Fatalf("Omegascans returned error: %v", err)
	}
	if !strings.Contains(gotQuery, "orderBy=total_views") || !strings.Contains(gotQuery, "series_type=Comic") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Example Series" {
		t.Fatalf("expected trimmed title, got %q", first.Title)
	}
	if first.URL != "https://omegascans.org/series/example-series" {
		t.Fatalf("unexpected url %q", first.URL)
	}
	if first.Summary != "A bold story." {
		t.Fatalf("expected markup stripped, got %q", first.Summary)
	}
	if items[1].URL != "" {
		t.Fatalf("expected empty url without slug, got %q", items[1].URL)
	}
}

func TestOmegascansRejectsMissingDataAndBadStatus(t *testing.T) {
	missingData := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{}}`))
	})
	if _, err := missingData.Omegascans(context.Background()); err == nil {
		t.Fatalf("expected error when data is missing")
	}

	upstreamDown := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := upstreamDown.Omegascans(context.Background()); err == nil {
		t.Fatalf("expected error for upstream failure")
	}
}

func TestAsurascansParsesSeriesGrid(t *testing.T) {
	var gotPage string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/asura/series" {
			http.NotFound(w, r)
			return
		}
		gotPage = r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(asuraPage))
	})

	page, err := client.Asurascans(context.Background(), 0)
	if err != nil {
		t.Fatalf("Asurascans returned error: %v", err)
	}
	if gotPage != "1" {
		t.Fatalf("expected page to default to 1, got %q", gotPage)
	}
	if !page.HasMore {
		t.Fatalf("expected hasMore from next link")
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 series, got %d (%+v)", len(page.Items), page.Items)
	}

	first := page.Items[0]
	if first.Title != "Solo Leveling" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if !strings.HasSuffix(first.URL, "/asura/series/solo-leveling-abc123") {
		t.Fatalf("expected absolute series url, got %q", first.URL)
	}
	if !strings.HasSuffix(first.Cover, "/asura/images/solo.webp") {
		t.Fatalf("expected absolute cover url, got %q", first.Cover)
	}

	second := page.Items[1]
	if second.Title != "Nano Machine" {
		t.Fatalf("expected anchor text fallback, got %q", second.Title)
	}
	if second.Cover != "https://cdn.example.com/nano.webp" {
		t.Fatalf("expected absolute cover kept, got %q", second.Cover)
	}
}

func TestAsurascansLastPageHasNoMore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="flex"><a href="/series/x">X</a></div><a class="flex bg-themecolor">Previous</a>`))
	})

	page, err := client.Asurascans(context.Background(), 7)
	if err != nil {
		t.Fatalf("Asurascans returned error: %v", err)
	}
	if page.HasMore || page.Page != 7 {
		t.Fatalf("unexpected page state %+v", page)
	}
}

func TestOverviewKeepsWorkingListingWhenOneFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/omega-api") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(asuraPage))
	})

	overview, err := client.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if len(overview.Omegascans) != 0 {
		t.Fatalf("expected empty omegascans listing, got %d", len(overview.Omegascans))
	}
	if len(overview.Asurascans.Items) != 2 {
		t.Fatalf("expected asurascans items, got %d", len(overview.Asurascans.Items))
	}
}

func TestOverviewFailsWhenBothListingsFail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := client.Overview(context.Background()); err == nil {
		t.Fatalf("expected error when both listings fail")
	}
}
