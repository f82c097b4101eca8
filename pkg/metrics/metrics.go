package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection. A nil *Collector is
// valid and records nothing.
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Survey Metrics
	SurveySessionsStarted prometheus.Counter
	SurveySessionsActive  prometheus.Gauge
	SurveyStepTransitions *prometheus.CounterVec

	// Submission Metrics
	SubmissionsTotal   *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	SubmittedEmissions prometheus.Histogram

	// Store Metrics
	StoreErrorsTotal *prometheus.CounterVec

	// Scheduler Metrics
	SnapshotsTotal *prometheus.CounterVec
}

// NewCollector creates a collector registered with reg. A nil reg uses the
// default prometheus registerer.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"route"},
		),

		SurveySessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "survey_sessions_started_total",
				Help:      "Total number of survey sessions started",
			},
		),

		SurveySessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "survey_sessions_active",
				Help:      "Number of survey sessions held in memory",
			},
		),

		SurveyStepTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "survey_step_transitions_total",
				Help:      "Wizard transitions by target step and outcome",
			},
			[]string{"step", "outcome"},
		),

		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Survey submissions by trigger and result",
			},
			[]string{"trigger", "result"},
		),

		SubmissionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submission_duration_seconds",
				Help:      "Duration of a survey save including the community transaction",
				Buckets:   []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
		),

		SubmittedEmissions: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submitted_emissions_tons",
				Help:      "Annual footprint of saved surveys in tons of CO2",
				Buckets:   []float64{2, 4, 8, 12, 16, 20, 30, 50},
			},
		),

		StoreErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total number of document store errors by operation",
			},
			[]string{"operation"},
		),

		SnapshotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "community_snapshots_total",
				Help:      "Community ledger snapshots by result",
			},
			[]string{"result"},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments the API request counter and observes latency.
func (c *Collector) RecordAPIRequest(route, method, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.APIRequestsTotal.WithLabelValues(route, method, status).Inc()
	c.APIRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordSessionStarted counts a new survey session.
func (c *Collector) RecordSessionStarted() {
	if c == nil {
		return
	}
	c.SurveySessionsStarted.Inc()
}

// SetActiveSessions updates the live session gauge.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.SurveySessionsActive.Set(float64(n))
}

// RecordStepTransition counts a wizard transition attempt.
func (c *Collector) RecordStepTransition(step string, allowed bool) {
	if c == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	c.SurveyStepTransitions.WithLabelValues(step, outcome).Inc()
}

// RecordSubmission counts a save attempt and, on success, the saved total.
func (c *Collector) RecordSubmission(trigger, result string, duration time.Duration, totalTons float64) {
	if c == nil {
		return
	}
	c.SubmissionsTotal.WithLabelValues(trigger, result).Inc()
	c.SubmissionDuration.Observe(duration.Seconds())
	if result == "saved" {
		c.SubmittedEmissions.Observe(totalTons)
	}
}

// RecordStoreError increments the store error counter.
func (c *Collector) RecordStoreError(operation string) {
	if c == nil {
		return
	}
	c.StoreErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordSnapshot counts a community ledger snapshot.
func (c *Collector) RecordSnapshot(result string) {
	if c == nil {
		return
	}
	c.SnapshotsTotal.WithLabelValues(result).Inc()
}
