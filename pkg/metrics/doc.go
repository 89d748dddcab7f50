/*
Package metrics provides Prometheus instrumentation for lpbcast.

All metrics are registered at package load and exposed through the standard
promhttp handler. Counters are incremented inline by the protocol core
(deliveries, gossip dispatches, retransmission requests by stage, abandoned
recoveries); buffer occupancy gauges are aggregated across processes by the
Collector, which polls a StatsSource on an interval.

# Metrics

	lpbcast_events_delivered_total      counter
	lpbcast_gossip_messages_total       counter
	lpbcast_retrieve_requests_total     counter, label: stage
	lpbcast_events_abandoned_total      counter
	lpbcast_processes_total             gauge, label: state
	lpbcast_buffer_size                 gauge, label: buffer
	lpbcast_step_duration_seconds       histogram
	lpbcast_ticks_total                 counter

# Usage

Serving the endpoint:

	http.Handle("/metrics", metrics.Handler())
	go http.ListenAndServe(":9090", nil)

Collecting buffer gauges from the simulator:

	collector := metrics.NewCollector(simulator)
	collector.Start()
	defer collector.Stop()

Timing an operation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StepDuration)

# See Also

  - pkg/lpbcast for the inline counter increments
  - pkg/sim for the StatsSource implementation
*/
package metrics
