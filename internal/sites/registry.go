package sites

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Registry struct {
	mu    sync.RWMutex
	sites map[string]Site
}

type Descriptor struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Audience string `json:"audience"`
}

type HealthStatus struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Audience string `json:"audience"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
}

func NewRegistry() *Registry {
	return &Registry{sites: map[string]Site{}}
}

func (r *Registry) Register(site Site) error {
	if site == nil {
		return fmt.Errorf("site is nil")
	}

	key := site.Key()
	if key == "" || key != strings.ToLower(strings.TrimSpace(key)) {
		return fmt.Errorf("site key must be non-empty lower case, got %q", key)
	}
	switch site.Audience() {
	case AudienceAdult, AudienceGeneral:
	default:
		return fmt.Errorf("site %q has unknown audience %q", key, site.Audience())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sites[key]; exists {
		return fmt.Errorf("site %q already registered", key)
	}

	r.sites[key] = site
	return nil
}

// Get looks a site up by key or, failing that, by display name, ignoring
// case and surrounding spaces.
func (r *Registry) Get(key string) (Site, bool) {
	normalized := strings.ToLower(strings.TrimSpace(key))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if site, ok := r.sites[normalized]; ok {
		return site, true
	}
	for _, site := range r.sites {
		if strings.ToLower(site.Name()) == normalized {
			return site, true
		}
	}
	return nil, false
}

// ForAudience returns the sites serving audience, sorted by key. Adult and
// general sets never overlap because every site has exactly one audience.
func (r *Registry) ForAudience(audience string) []Site {
	r.mu.RLock()
	list := make([]Site, 0, len(r.sites))
	for _, site := range r.sites {
		if site.Audience() == audience {
			list = append(list, site)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Key() < list[j].Key()
	})
	return list
}

func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Descriptor, 0, len(r.sites))
	for _, site := range r.sites {
		items = append(items, Descriptor{
			Key:      site.Key(),
			Name:     site.Name(),
			Audience: site.Audience(),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Key < items[j].Key
	})

	return items
}

func (r *Registry) Health(ctx context.Context) []HealthStatus {
	r.mu.RLock()
	list := make([]Site, 0, len(r.sites))
	for _, site := range r.sites {
		list = append(list, site)
	}
	r.mu.RUnlock()

	statuses := make([]HealthStatus, 0, len(list))
	for _, site := range list {
		err := site.HealthCheck(ctx)
		status := HealthStatus{
			Key:      site.Key(),
			Name:     site.Name(),
			Audience: site.Audience(),
			Healthy:  err == nil,
		}
		if err != nil {
			status.Error = err.Error()
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Key < statuses[j].Key
	})

	return statuses
}
