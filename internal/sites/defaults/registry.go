package defaults

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gabriel/manga-link-finder/internal/fetch"
	"github.com/gabriel/manga-link-finder/internal/sites"
	"github.com/gabriel/manga-link-finder/internal/sites/native/comick"
	"github.com/gabriel/manga-link-finder/internal/sites/native/omegascans"
	"github.com/gabriel/manga-link-finder/internal/sites/native/toongod"
	"github.com/gabriel/manga-link-finder/internal/sites/siteconfig"
	"github.com/gabriel/manga-link-finder/internal/verify"
)

type policySite interface {
	sites.Site
	Policy() verify.Policy
}

// NewRegistry wires the built-in sites and the verifier they share. Config
// problems are returned alongside a usable registry built from defaults.
func NewRegistry(fetcher fetch.Fetcher, siteConfigPath string, logger *slog.Logger) (*sites.Registry, *verify.Verifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	overrides, loadErr := siteconfig.Load(siteConfigPath)
	if loadErr != nil {
		overrides = nil
	}

	verifier := verify.NewVerifier(fetcher, nil, logger)
	registry := sites.NewRegistry()

	builtins := []policySite{
		omegascans.NewSiteWithOptions(overrides[omegascans.Key].BaseURL, overrides[omegascans.Key].Hosts, fetcher, verifier, logger),
		toongod.NewSiteWithOptions(overrides[toongod.Key].BaseURL, overrides[toongod.Key].Hosts, fetcher, verifier, logger),
		comick.NewSiteWithOptions(overrides[comick.Key].APIBaseURL, overrides[comick.Key].BaseURL, overrides[comick.Key].Hosts, fetcher, verifier, logger),
	}

	known := map[string]struct{}{}
	for _, site := range builtins {
		known[site.Key()] = struct{}{}

		override := overrides[site.Key()]
		if !override.IsEnabled() {
			logger.Info("site disabled by config", "site", site.Key())
			continue
		}

		verifier.SetPolicy(override.ApplyPolicy(site.Policy()))
		if err := registry.Register(site); err != nil && loadErr == nil {
			loadErr = fmt.Errorf("register site %q: %w", site.Key(), err)
		}
	}

	unknown := make([]string, 0)
	for key := range overrides {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 && loadErr == nil {
		sort.Strings(unknown)
		loadErr = fmt.Errorf("site config references unknown sites: %s", strings.Join(unknown, ", "))
	}

	return registry, verifier, loadErr
}
