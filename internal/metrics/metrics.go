package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobdeck_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobdeck_search_duration_seconds",
			Help:    "Duration of each full job search run in seconds.",
			Buckets: []float64{10, 30, 60, 180, 600},
		},
	)
	PlatformSearchDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "jobdeck_platform_search_duration_seconds",
			Help:       "Duration of the search on each platform.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"platform"},
	)
	FoundPostingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobdeck_postings_found_total",
			Help: "Total number of postings returned by platforms.",
		},
	)
	DuplicatePostingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobdeck_postings_duplicate_total",
			Help: "Total number of postings dropped as duplicates.",
		},
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobdeck_sweep_duration_seconds",
			Help:    "Duration of each status sweep in seconds.",
			Buckets: []float64{10, 30, 60, 180, 600},
		},
	)
	SweepArchivedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobdeck_sweep_archived_total",
			Help: "Total number of jobs archived by the status sweep.",
		},
	)
	ClassifiedEmailsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobdeck_emails_classified_total",
			Help: "Total number of classified employer emails.",
		},
		[]string{"status"},
	)
	SentApplicationsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobdeck_applications_sent_total",
			Help: "Total number of quick-apply emails sent.",
		},
	)
)

func StartMetricsServer(port int) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(PlatformSearchDuration)
	prometheus.MustRegister(FoundPostingsCounter)
	prometheus.MustRegister(DuplicatePostingsCounter)
	prometheus.MustRegister(SweepDuration)
	prometheus.MustRegister(SweepArchivedCounter)
	prometheus.MustRegister(ClassifiedEmailsCounter)
	prometheus.MustRegister(SentApplicationsCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), nil))
	}()
}
