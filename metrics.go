package homework

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Poll results and notification kinds used as metric labels.
const (
	resultOK       = "ok"
	resultError    = "error"
	kindReview     = "review"
	kindError      = "error"
	kindSendFailed = "send_failed"
)

// Metrics holds the watcher's Prometheus collectors.
type Metrics struct {
	Polls         *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	PollDuration  prometheus.Histogram
	Cursor        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homework_polls_total",
				Help: "Total number of homework API polls by result",
			},
			[]string{"result"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homework_notifications_total",
				Help: "Total number of notifications by kind",
			},
			[]string{"kind"},
		),
		PollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homework_poll_duration_seconds",
				Help:    "Duration of a single poll cycle in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		Cursor: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "homework_cursor_timestamp_seconds",
				Help: "Unix timestamp homework changes are requested since",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Polls, m.Notifications, m.PollDuration, m.Cursor)
	}
	return m
}
