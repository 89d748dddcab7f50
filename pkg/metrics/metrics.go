package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dissemination metrics
	EventsDeliveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lpbcast_events_delivered_total",
			Help: "Total number of first-time event deliveries across all processes",
		},
	)

	GossipMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lpbcast_gossip_messages_total",
			Help: "Total number of gossip messages dispatched",
		},
	)

	// Recovery metrics
	RetrieveRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lpbcast_retrieve_requests_total",
			Help: "Total number of retransmission requests by destination stage",
		},
		[]string{"stage"},
	)

	EventsAbandonedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lpbcast_events_abandoned_total",
			Help: "Total number of missing events given up on after the originator stage",
		},
	)

	// Membership metrics
	ProcessesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lpbcast_processes_total",
			Help: "Number of processes by subscription state",
		},
		[]string{"state"},
	)

	// Buffer metrics
	BufferSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lpbcast_buffer_size",
			Help: "Aggregate buffer occupancy across all processes by buffer",
		},
		[]string{"buffer"},
	)

	// Tick metrics
	StepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lpbcast_step_duration_seconds",
			Help:    "Time taken by a single process tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lpbcast_ticks_total",
			Help: "Total number of simulation ticks executed",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(EventsDeliveredTotal)
	prometheus.MustRegister(GossipMessagesTotal)
	prometheus.MustRegister(RetrieveRequestsTotal)
	prometheus.MustRegister(EventsAbandonedTotal)
	prometheus.MustRegister(ProcessesTotal)
	prometheus.MustRegister(BufferSize)
	prometheus.MustRegister(StepDuration)
	prometheus.MustRegister(TicksTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
