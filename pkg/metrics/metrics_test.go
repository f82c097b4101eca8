package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector("footprint", prometheus.NewRegistry())

	c.RecordSubmission("results", "saved", 20*time.Millisecond, 12.5)
	c.RecordSubmission("results", "failed", 5*time.Millisecond, 0)
	c.RecordSubmission("results", "saved", 10*time.Millisecond, 3)
	c.RecordStepTransition("diet", true)
	c.RecordStepTransition("diet", false)
	c.RecordSessionStarted()
	c.SetActiveSessions(4)
	c.RecordStoreError("upsert_emissions")
	c.RecordSnapshot("ok")
	c.RecordAPIRequest("/surveys/:id", "GET", "200", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.SubmissionsTotal.WithLabelValues("results", "saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SubmissionsTotal.WithLabelValues("results", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SurveyStepTransitions.WithLabelValues("diet", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SurveySessionsStarted))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.SurveySessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreErrorsTotal.WithLabelValues("upsert_emissions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SnapshotsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/surveys/:id", "GET", "200")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordSubmission("auth", "saved", time.Second, 1)
		c.RecordStepTransition("energy", true)
		c.RecordSessionStarted()
		c.SetActiveSessions(1)
		c.RecordStoreError("get")
		c.RecordSnapshot("failed")
		c.RecordAPIRequest("/", "GET", "200", time.Second)
	})
}

func TestTimer(t *testing.T) {
	c := NewCollector("footprint", prometheus.NewRegistry())
	timer := c.NewTimer(c.SubmissionDuration)
	assert.GreaterOrEqual(t, timer.ObserveDuration(), time.Duration(0))
}
