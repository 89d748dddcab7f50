package trace

import (
	"github.com/lucazanella/lpbcast/pkg/events"
	"github.com/lucazanella/lpbcast/pkg/log"
	"github.com/rs/zerolog"
)

// Recorder observes the notification broker and persists every first-time
// delivery for one run. Notifications arrive synchronously from the
// simulation loop, so once Stop returns the store holds the complete run.
type Recorder struct {
	store  Store
	runID  string
	broker *events.Broker
	subID  int
	logger zerolog.Logger
}

// NewRecorder creates a recorder bound to a run.
func NewRecorder(store Store, broker *events.Broker, runID string) *Recorder {
	return &Recorder{
		store:  store,
		runID:  runID,
		broker: broker,
		logger: log.WithComponent("trace"),
	}
}

// Start registers the recorder with the broker.
func (r *Recorder) Start() {
	r.subID = r.broker.Subscribe(r.observe)
}

// Stop deregisters the recorder; nothing published afterwards is persisted.
func (r *Recorder) Stop() {
	r.broker.Unsubscribe(r.subID)
}

func (r *Recorder) observe(n *events.Notification) {
	if n.Type != events.NotificationEventDelivered {
		return
	}

	d := &Delivery{
		RunID:     r.runID,
		Tick:      n.Tick,
		ProcessID: n.ProcessID,
		EventID:   n.EventID,
		Origin:    n.Origin,
		Age:       n.Age,
	}
	if err := r.store.AppendDelivery(d); err != nil {
		r.logger.Error().Err(err).Msg("Failed to persist delivery")
	}
}
