package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gabriel/manga-link-finder/internal/config"
	"github.com/gabriel/manga-link-finder/internal/database"
	"github.com/gabriel/manga-link-finder/internal/featured"
	apihttp "github.com/gabriel/manga-link-finder/internal/http"
	"github.com/gabriel/manga-link-finder/internal/models"
	"github.com/gabriel/manga-link-finder/internal/recommend"
	"github.com/gabriel/manga-link-finder/internal/resolver"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gofiber/fiber/v2"
)

type fakeSite struct {
	key      string
	name     string
	audience string
	links    map[string]string
}

func (f *fakeSite) Key() string                       { return f.key }
func (f *fakeSite) Name() string                      { return f.name }
func (f *fakeSite) Audience() string                  { return f.audience }
func (f *fakeSite) HealthCheck(context.Context) error { return nil }
func (f *fakeSite) Resolve(_ context.Context, title string) (string, bool) {
	link, ok := f.links[title]
	return link, ok
}

type resolveCall struct {
	titles  []string
	isAdult bool
}

type fakeResolver struct {
	result resolver.Result
	err    error
	calls  []resolveCall
}

func (f *fakeResolver) Resolve(_ context.Context, titles []string, isAdult bool) (resolver.Result, error) {
	f.calls = append(f.calls, resolveCall{titles: titles, isAdult: isAdult})
	if f.err != nil {
		return nil, f.err
	}
	if len(titles) == 0 {
		return nil, resolver.ErrNoTitles
	}
	return f.result, nil
}

type fakeCatalog struct {
	collection models.CatalogCollection
	err        error
	users      []string
}

func (f *fakeCatalog) Collection(_ context.Context, userName string) (models.CatalogCollection, error) {
	f.users = append(f.users, userName)
	return f.collection, f.err
}

type fakeFeatured struct {
	items    []featured.Item
	page     featured.Page
	err      error
	lastPage int
}

func (f *fakeFeatured) Overview(context.Context) (featured.Overview, error) {
	return featured.Overview{Omegascans: f.items, Asurascans: f.page}, f.err
}

func (f *fakeFeatured) Omegascans(context.Context) ([]featured.Item, error) {
	return f.items, f.err
}

func (f *fakeFeatured) Asurascans(_ context.Context, page int) (featured.Page, error) {
	f.lastPage = page
	return f.page, f.err
}

type fakeRecommender struct {
	configured bool
	text       string
	err        error
	prefs      recommend.Preferences
}

func (f *fakeRecommender) Configured() bool { return f.configured }
func (f *fakeRecommender) Recommend(_ context.Context, prefs recommend.Preferences) (string, error) {
	f.prefs = prefs
	return f.text, f.err
}

type testDeps struct {
	resolver    *fakeResolver
	catalog     *fakeCatalog
	featured    *fakeFeatured
	recommender *fakeRecommender
}

func sampleCollection() models.CatalogCollection {
	return models.CatalogCollection{Lists: []models.CatalogList{{
		Name: "Reading",
		Entries: []models.CatalogEntry{
			{
				ID:     1,
				Status: "CURRENT",
				Media: models.Media{
					ID:    101,
					Title: models.MediaTitle{English: "Solo Leveling", Romaji: "Na Honjaman Level Up"},
				},
			},
			{
				ID:     2,
				Status: "CURRENT",
				Media: models.Media{
					ID:      202,
					Title:   models.MediaTitle{English: "Sweet Home"},
					IsAdult: true,
				},
			},
		},
	}}}
}

func setupTestApp(t *testing.T) (*fiber.App, testDeps) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := database.ApplyMigrations(context.Background(), db, database.MigrationsSource(""), nil); err != nil {
		_ = db.Close()
		t.Fatalf("apply migrations: %v", err)
	}

	registry := sites.NewRegistry()
	_ = registry.Register(&fakeSite{
		key:      "comick",
		name:     "Comick",
		audience: sites.AudienceGeneral,
		links:    map[string]string{"Solo Leveling": "https://comick.io/comic/solo-leveling"},
	})
	_ = registry.Register(&fakeSite{key: "toongod", name: "Toongod", audience: sites.AudienceAdult})

	deps := testDeps{
		resolver:    &fakeResolver{result: resolver.Result{"Comick": {"https://comick.io/comic/solo-leveling"}}},
		catalog:     &fakeCatalog{collection: sampleCollection()},
		featured:    &fakeFeatured{},
		recommender: &fakeRecommender{},
	}

	cfg := config.Config{AppName: "test-app", CatalogUser: "reader", AdultRule: "flag"}
	app := apihttp.NewServer(cfg, apihttp.Dependencies{
		DB:          db,
		Sites:       registry,
		Resolver:    deps.resolver,
		Catalog:     deps.catalog,
		Featured:    deps.featured,
		Recommender: deps.recommender,
	})

	t.Cleanup(func() {
		_ = app.Shutdown()
		_ = db.Close()
	})

	return app, deps
}

func doRequest(t *testing.T, app *fiber.App, method string, target string, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, target, err)
	}
	defer res.Body.Close()

	payload := map[string]any{}
	if strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
			t.Fatalf("decode %s %s payload: %v", method, target, err)
		}
	}
	return res.StatusCode, payload
}

func expectStatus(t *testing.T, got int, want int, payload map[string]any) {
	t.Helper()
	if got != want {
		t.Fatalf("expected %d, got %d (%v)", want, got, payload)
	}
}
