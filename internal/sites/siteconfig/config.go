// Package siteconfig loads optional per-site overrides from a YAML file:
//
//	sites:
//	  - key: toongod
//	    base_url: https://www.toongod.org
//	    hosts: [toongod.org]
//	    trust_on_403: true
//	  - key: omegascans
//	    enabled: false
package siteconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel/manga-link-finder/internal/verify"
	"gopkg.in/yaml.v3"
)

type File struct {
	Sites []Override `yaml:"sites"`
}

type Override struct {
	Key        string   `yaml:"key"`
	Enabled    *bool    `yaml:"enabled"`
	BaseURL    string   `yaml:"base_url"`
	APIBaseURL string   `yaml:"api_base_url"`
	Hosts      []string `yaml:"hosts"`
	TrustOn2xx *bool    `yaml:"trust_on_2xx"`
	TrustOn403 *bool    `yaml:"trust_on_403"`
}

func (o Override) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// ApplyPolicy layers the override's hosts and trust flags over policy.
func (o Override) ApplyPolicy(policy verify.Policy) verify.Policy {
	if len(o.Hosts) > 0 {
		policy.Hosts = append([]string(nil), o.Hosts...)
	}
	if o.TrustOn2xx != nil {
		policy.TrustOn2xx = *o.TrustOn2xx
	}
	if o.TrustOn403 != nil {
		policy.TrustOn403 = *o.TrustOn403
	}
	return policy
}

func (o *Override) normalizeAndValidate() error {
	o.Key = strings.ToLower(strings.TrimSpace(o.Key))
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	o.APIBaseURL = strings.TrimRight(strings.TrimSpace(o.APIBaseURL), "/")

	if o.Key == "" {
		return fmt.Errorf("key is required")
	}

	hosts := make([]string, 0, len(o.Hosts))
	for _, host := range o.Hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	o.Hosts = hosts

	for _, raw := range []string{o.BaseURL, o.APIBaseURL} {
		if raw != "" && !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return fmt.Errorf("%s: url %q must be http(s)", o.Key, raw)
		}
	}
	return nil
}

// Load reads overrides keyed by site key. An empty path or a missing file
// means no overrides.
func Load(path string) (map[string]Override, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}

	content, err := os.ReadFile(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read site config: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse site config: %w", err)
	}

	overrides := make(map[string]Override, len(file.Sites))
	for i := range file.Sites {
		override := file.Sites[i]
		if err := override.normalizeAndValidate(); err != nil {
			return nil, fmt.Errorf("site config entry %d: %w", i, err)
		}
		if _, exists := overrides[override.Key]; exists {
			return nil, fmt.Errorf("site config: duplicate key %q", override.Key)
		}
		overrides[override.Key] = override
	}
	return overrides, nil
}
