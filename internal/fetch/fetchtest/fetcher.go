// Package fetchtest provides an in-memory fetch.Fetcher keyed by URL.
package fetchtest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gabriel/manga-link-finder/internal/fetch"
)

type Route struct {
	Status int
	Body   string
	Header http.Header
	Err    error
}

type Fetcher struct {
	mu        sync.Mutex
	routes    map[string]Route
	calls     []string
	bodyReads map[string]int
	headers   map[string]http.Header
}

func New(routes map[string]Route) *Fetcher {
	if routes == nil {
		routes = map[string]Route{}
	}
	return &Fetcher{routes: routes, bodyReads: map[string]int{}, headers: map[string]http.Header{}}
}

func (f *Fetcher) Set(rawURL string, route Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[rawURL] = route
}

// Get answers from the route table; unknown URLs are 404s.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers http.Header) (*fetch.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.headers[rawURL] = headers
	route, ok := f.routes[rawURL]
	f.mu.Unlock()

	if !ok {
		route = Route{Status: http.StatusNotFound}
	}
	if route.Err != nil {
		return nil, route.Err
	}
	if route.Status == 0 {
		route.Status = http.StatusOK
	}

	body := &countingBody{reader: strings.NewReader(route.Body), onRead: func() {
		f.mu.Lock()
		f.bodyReads[rawURL]++
		f.mu.Unlock()
	}}
	return fetch.NewResponse(route.Status, route.Header, body), nil
}

func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fetcher) CallCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == rawURL {
			count++
		}
	}
	return count
}

func (f *Fetcher) BodyRead(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodyReads[rawURL] > 0
}

func (f *Fetcher) HeadersFor(rawURL string) http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[rawURL]
}

type countingBody struct {
	reader io.Reader
	onRead func()
}

func (b *countingBody) Read(p []byte) (int, error) {
	b.onRead()
	return b.reader.Read(p)
}

func (b *countingBody) Close() error { return nil }
