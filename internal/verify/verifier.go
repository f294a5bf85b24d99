// Package verify decides whether a candidate link really belongs to a title.
//
// Each site registers a Policy. A policy only applies to URLs on its hosts
// (and under its path prefix, when set); everything else falls back to the
// body substring check.
package verify

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/searchutil"
)

type Policy struct {
	SiteKey    string
	Hosts      []string
	PathPrefix string
	// TrustOn2xx accepts any successful response without reading the body.
	TrustOn2xx bool
	// TrustOn403 reads a 403 as an anti-bot block on a page that exists.
	TrustOn403 bool
}

// Matches reports whether rawURL is on one of the policy hosts and under
// PathPrefix.
func (p Policy) Matches(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if !isAllowedHost(parsed.Hostname(), p.Hosts) {
		return false
	}

	prefix := strings.TrimRight(strings.TrimSpace(p.PathPrefix), "/")
	if prefix == "" {
		return true
	}
	return parsed.Path == prefix || strings.HasPrefix(parsed.Path, prefix+"/")
}

type Verifier struct {
	fetcher fetch.Fetcher
	logger  *slog.Logger

	mu       sync.RWMutex
	policies map[string]Policy
}

func NewVerifier(fetcher fetch.Fetcher, policies []Policy, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Verifier{fetcher: fetcher, logger: logger, policies: map[string]Policy{}}
	for _, policy := range policies {
		v.SetPolicy(policy)
	}
	return v
}

func (v *Verifier) SetPolicy(policy Policy) {
	key := strings.TrimSpace(policy.SiteKey)
	if key == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.policies[key] = policy
}

func (v *Verifier) Policy(siteKey string) (Policy, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	policy, ok := v.policies[siteKey]
	return policy, ok
}

// Verify fetches rawURL once and applies the site's policy. Fetch failures
// and unexpected statuses are simply "not verified".
func (v *Verifier) Verify(ctx context.Context, siteKey string, rawURL string, title string) bool {
	res, err := v.fetcher.Get(ctx, rawURL, nil)
	if err != nil {
		v.logger.Debug("verify fetch failed", "site", siteKey, "url", rawURL, "error", err)
		return false
	}
	defer res.Close()

	policy, ok := v.Policy(siteKey)
	applies := ok && policy.Matches(rawURL)

	if applies && res.OK() && policy.TrustOn2xx {
		return true
	}
	if applies && res.StatusCode == http.StatusForbidden && policy.TrustOn403 {
		return true
	}
	if !res.OK() {
		v.logger.Debug("verify rejected status", "site", siteKey, "url", rawURL, "status", res.StatusCode)
		return false
	}

	text, err := res.Text()
	if err != nil {
		v.logger.Debug("verify body read failed", "site", siteKey, "url", rawURL, "error", err)
		return false
	}

	// A title with no latin alphanumerics normalizes to "" and matches any body.
	matched := strings.Contains(searchutil.NormalizeAlnum(text), searchutil.NormalizeAlnum(title))
	if !matched {
		v.logger.Debug("verify title not in body", "site", siteKey, "url", rawURL, "title", title)
	}
	return matched
}

func isAllowedHost(host string, allowedHosts []string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	for _, allowed := range allowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
