// Package metrics holds the prometheus collectors shared by the fetcher,
// the resolver and the catalog service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlf_fetch_requests_total",
			Help: "Outbound GET requests by host and status code (0 = transport failure).",
		},
		[]string{"host", "status"},
	)
	SiteOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlf_site_outcomes_total",
			Help: "Per (title, site) resolution outcomes.",
		},
		[]string{"site", "outcome"},
	)
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlf_resolutions_total",
			Help: "External link resolutions by audience and outcome.",
		},
		[]string{"audience", "outcome"},
	)
	ResolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlf_resolve_duration_seconds",
			Help:    "Wall time of one resolution call.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
		},
		[]string{"audience"},
	)
	CatalogLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlf_catalog_loads_total",
			Help: "Catalog collection loads by source (cache|api) and outcome.",
		},
		[]string{"source", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(FetchRequests)
	prometheus.MustRegister(SiteOutcomes)
	prometheus.MustRegister(Resolutions)
	prometheus.MustRegister(ResolveDuration)
	prometheus.MustRegister(CatalogLoads)
}

func ObserveFetch(host string, status int) {
	if host == "" {
		host = "unknown"
	}
	FetchRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
}

func ObserveSite(site string, outcome string) {
	SiteOutcomes.WithLabelValues(site, outcome).Inc()
}

func ObserveResolution(audience string, outcome string, elapsed time.Duration) {
	Resolutions.WithLabelValues(audience, outcome).Inc()
	ResolveDuration.WithLabelValues(audience).Observe(elapsed.Seconds())
}

func ObserveCatalogLoad(source string, outcome string) {
	CatalogLoads.WithLabelValues(source, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
