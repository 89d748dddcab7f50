package metrics

import "time"

// ProcessStats is a point-in-time snapshot of one process's buffer occupancy.
type ProcessStats struct {
	ProcessID       int
	View            int
	Subs            int
	Unsubs          int
	Events          int
	EventIDs        int
	Archived        int
	PendingRetrieve int
	ActiveRequests  int
	Unsubscribed    bool
}

// StatsSource provides process snapshots for the collector. Implemented by
// the simulation host.
type StatsSource interface {
	Stats() []ProcessStats
}

// Collector periodically aggregates buffer gauges from a stats source
type Collector struct {
	source StatsSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		// Collect immediately on start
		c.Collect()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Collect performs one aggregation pass over all processes.
func (c *Collector) Collect() {
	stats := c.source.Stats()

	var view, subs, unsubs, events, eventIDs, archived, retrieve, active float64
	var subscribed, quiescent float64
	for _, s := range stats {
		view += float64(s.View)
		subs += float64(s.Subs)
		unsubs += float64(s.Unsubs)
		events += float64(s.Events)
		eventIDs += float64(s.EventIDs)
		archived += float64(s.Archived)
		retrieve += float64(s.PendingRetrieve)
		active += float64(s.ActiveRequests)
		if s.Unsubscribed {
			quiescent++
		} else {
			subscribed++
		}
	}

	BufferSize.WithLabelValues("view").Set(view)
	BufferSize.WithLabelValues("subs").Set(subs)
	BufferSize.WithLabelValues("unsubs").Set(unsubs)
	BufferSize.WithLabelValues("events").Set(events)
	BufferSize.WithLabelValues("event_ids").Set(eventIDs)
	BufferSize.WithLabelValues("archived").Set(archived)
	BufferSize.WithLabelValues("retrieve").Set(retrieve)
	BufferSize.WithLabelValues("active_requests").Set(active)

	ProcessesTotal.WithLabelValues("subscribed").Set(subscribed)
	ProcessesTotal.WithLabelValues("unsubscribed").Set(quiescent)
}
