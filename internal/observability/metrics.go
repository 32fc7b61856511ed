package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Listing pages fetched successfully",
		},
	)
	PagesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_failed_total",
			Help: "Listing page fetches that ended the crawl",
		},
	)
	PagesEmpty = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_pages_empty_total",
			Help: "Fetched pages without listing cards",
		},
	)
	CardsExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_cards_extracted_total",
			Help: "Listing cards turned into raw records",
		},
	)
	CardsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_cards_dropped_total",
			Help: "Listing cards dropped on structural errors",
		},
	)
	RecordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalizer_records_dropped_total",
			Help: "Raw records rejected by the normalizer, by stage",
		},
		[]string{"stage"},
	)
	RecordsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_records_written_total",
			Help: "Normalized records written, by sink",
		},
		[]string{"sink"},
	)
	SinkFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_sink_failures_total",
			Help: "Failed sink writes, by sink",
		},
		[]string{"sink"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call twice.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PagesFetched, PagesFailed, PagesEmpty,
			CardsExtracted, CardsDropped,
			RecordsDropped, RecordsWritten, SinkFailures,
		)
	})
}

// Start registers the collectors and serves /metrics on port in the background.
func Start(port string) {
	Register()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, mux)
}
