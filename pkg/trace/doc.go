/*
Package trace persists simulation observations to an embedded BoltDB store.

The trace store records, per run, the configuration that produced it and every
first-time delivery observed by the host. It records observations only: no
protocol state is persisted and nothing is restored into processes on restart.
The store feeds the post-run report and makes runs comparable across protocol
parameter changes.

# Schema

Two buckets, JSON values:

	runs:        run ID → Run (config snapshot, seed, totals)
	deliveries:  run ID "/" big-endian sequence → Delivery

Delivery keys are prefixed by run ID so one run's records are contiguous and
ordered by observation.

# Usage

	store, err := trace.NewBoltStore(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	recorder := trace.NewRecorder(store, broker, runID)
	recorder.Start()
	// ... run the simulation ...
	recorder.Stop()

	deliveries, _ := store.ListDeliveries(runID)

# See Also

  - pkg/events for the notification broker the recorder subscribes to
  - cmd/lpbcast for the --trace flag wiring
*/
package trace
