package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SubscribeOutcome("created")
	m.SubscribeOutcome("created")
	m.SubscribeOutcome("fallback")
	m.UnsubscribeOutcome("absent")
	m.NotificationSent("admin_notice", nil)
	m.NotificationSent("admin_notice", errors.New("throttled"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscriptions.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unsubscriptions.WithLabelValues("absent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("admin_notice", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("admin_notice", "failed")))
}

func TestMetrics_StoreLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveStore("create", time.Now().Add(-20*time.Millisecond))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "intake_store_duration_seconds" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.True(t, found)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SubscribeOutcome("created")
		m.UnsubscribeOutcome("removed")
		m.NotificationSent("admin_notice", nil)
		m.ObserveStore("delete", time.Now())
	})
}
