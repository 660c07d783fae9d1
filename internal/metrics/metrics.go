package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts finished analyses by result (success, client_error, error).
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cane_vision",
		Name:      "analyses_total",
		Help:      "Total number of field image analyses, labeled by result.",
	}, []string{"result"})

	// AnalysisDurationSeconds is the time spent inside the analysis service per request.
	AnalysisDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cane_vision",
		Name:      "analysis_duration_seconds",
		Help:      "Time to validate and analyze one uploaded image.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	MaturityLevelTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cane_vision",
		Name:      "maturity_level_total",
		Help:      "Reports produced per maturity level.",
	}, []string{"level"})

	// DetectionsTotal counts pest and disease findings.
	DetectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cane_vision",
		Name:      "detections_total",
		Help:      "Pest and disease detections included in reports, labeled by kind.",
	}, []string{"kind"})

	ArchiveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cane_vision",
		Name:      "archive_total",
		Help:      "Report archive attempts, labeled by archiver and result.",
	}, []string{"archiver", "result"})
)

// Register registers the service collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			AnalysisDurationSeconds,
			MaturityLevelTotal,
			DetectionsTotal,
			ArchiveTotal,
		)
	})
}
