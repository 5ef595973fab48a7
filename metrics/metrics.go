// Package metrics exposes Prometheus instrumentation for the scrape
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. Construct one per
// process with New (default registry) or NewWithRegistry for tests.
type Metrics struct {
	ScrapesTotal        *prometheus.CounterVec
	ScrapeDuration      prometheus.Histogram
	DepartmentsResolved prometheus.Counter
	DepartmentsFailed   prometheus.Counter
	FacultyExtracted    prometheus.Counter
	RecordsRejected     prometheus.Counter
	EntitiesCreated     prometheus.Counter
	EntitiesMerged      prometheus.Counter
	IngestConflicts     prometheus.Counter
	SearchThrottled     prometheus.Counter
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on the given registerer.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScrapesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "facultyatlas_scrapes_total",
			Help: "University scrapes by outcome.",
		}, []string{"status"}),
		ScrapeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "facultyatlas_scrape_duration_seconds",
			Help:    "Wall time of one university scrape.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		DepartmentsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_departments_resolved_total",
			Help: "Department candidates resolved.",
		}),
		DepartmentsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_departments_failed_total",
			Help: "Departments whose extraction failed and was skipped.",
		}),
		FacultyExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_faculty_extracted_total",
			Help: "Raw faculty records extracted.",
		}),
		RecordsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_records_rejected_total",
			Help: "Candidate items that failed validation heuristics.",
		}),
		EntitiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_entities_created_total",
			Help: "Faculty entities created during ingestion.",
		}),
		EntitiesMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_entities_merged_total",
			Help: "Raw records merged into existing entities.",
		}),
		IngestConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_ingest_conflicts_total",
			Help: "Field disagreements recorded during ingestion.",
		}),
		SearchThrottled: factory.NewCounter(prometheus.CounterOpts{
			Name: "facultyatlas_search_throttled_total",
			Help: "Search calls answered empty due to rate limiting.",
		}),
	}
}

// ObserveScrape records a completed scrape.
func (m *Metrics) ObserveScrape(success bool, seconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.ScrapesTotal.WithLabelValues(status).Inc()
	m.ScrapeDuration.Observe(seconds)
}
