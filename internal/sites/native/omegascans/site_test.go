package omegascans

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/verify"
)

func newTestSite(t *testing.T, handler http.Handler) (*Site, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}

	fetcher := fetch.NewClient(fetch.Config{Timeout: 5 * time.Second}, nil, nil)
	verifier := verify.NewVerifier(fetcher, nil, nil)
	site := NewSiteWithOptions(server.URL, []string{parsed.Hostname()}, fetcher, verifier, nil)
	verifier.SetPolicy(site.Policy())
	return site, server
}

func TestOmegascansResolveDirect(t *testing.T) {
	var searched bool
	mux := http.NewServeMux()
	mux.HandleFunc("/series/solo-leveling", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>series page</body></html>`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") != "" {
			searched = true
		}
		w.WriteHeader(http.StatusNotFound)
	})

	site, server := newTestSite(t, mux)

	link, ok := site.Resolve(context.Background(), "Solo Leveling")
	if !ok {
		t.Fatalf("expected direct url to resolve")
	}
	if link != server.URL+"/series/solo-leveling" {
		t.Fatalf("unexpected link %q", link)
	}
	if searched {
		t.Fatalf("expected search page not to be fetched after direct hit")
	}
}

func TestOmegascansResolveFallsBackToSearch(t *testing.T) {
	var query string
	mux := http.NewServeMux()
	mux.HandleFunc("/series/the-max-level-hero-has-returned-2", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		query = r.URL.Query().Get("s")
		_, _ = w.Write([]byte(`<html><body>
<a href="/series/unrelated">Unrelated</a>
<a href="/series/the-max-level-hero-has-returned-2">The Max Level Hero Has Returned!</a>
</body></html>`))
	})

	site, server := newTestSite(t, mux)

	link, ok := site.Resolve(context.Background(), "The Max Level Hero Has Returned")
	if !ok {
		t.Fatalf("expected scrape fallback to resolve")
	}
	if link != server.URL+"/series/the-max-level-hero-has-returned-2" {
		t.Fatalf("unexpected link %q", link)
	}
	if query != "The Max Level Hero Has Returned" {
		t.Fatalf("expected raw title as search query, got %q", query)
	}
}

func TestOmegascansResolveSkipsTitleWithoutSlug(t *testing.T) {
	var hits int
	site, _ := newTestSite(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))

	if _, ok := site.Resolve(context.Background(), "나 혼자만 레벨업"); ok {
		t.Fatalf("expected no result for title without latin characters")
	}
	if hits != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
}

func TestOmegascansResolveNoMatch(t *testing.T) {
	site, _ := newTestSite(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`<html><body><a href="/series/other">Other</a></body></html>`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if link, ok := site.Resolve(context.Background(), "Missing Title"); ok {
		t.Fatalf("expected no result, got %q", link)
	}
}

func TestOmegascansHealthCheck(t *testing.T) {
	site, _ := newTestSite(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if err := site.HealthCheck(context.Background()); err == nil {
		t.Fatalf("expected unhealthy site for 502")
	}
}
