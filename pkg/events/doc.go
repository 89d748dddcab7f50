/*
Package events provides a notification broker for observing protocol
activity.

The simulation host publishes protocol occurrences — first-time deliveries,
application broadcasts, and membership changes — and observers such as the
trace recorder and tests register callbacks without coupling to the protocol
core. NotificationEventAbandoned is defined but the simulator does not
publish it; an abandoned recovery shows only in the core's log and in the
lpbcast_events_abandoned_total counter.

Distribution is deliberately synchronous: the publisher is the
single-threaded simulation loop, and observers like the trace recorder need
every notification, in order, with no drops. A buffered asynchronous bus
would trade that completeness for concurrency the simulator does not have.

# Usage

	broker := events.NewBroker()

	subID := broker.Subscribe(func(n *events.Notification) {
		fmt.Printf("tick %d: process %d delivered %s\n", n.Tick, n.ProcessID, n.EventID)
	})
	defer broker.Unsubscribe(subID)

	broker.Publish(&events.Notification{
		Type:      events.NotificationEventDelivered,
		Tick:      42,
		ProcessID: 7,
		EventID:   eventID.String(), // an lpbcast.EventID
	})

Observers run on the publisher's goroutine and must return promptly; slow
work belongs on the observer's own goroutine.

# See Also

  - pkg/sim for the publisher
  - pkg/trace for the persistent observer
*/
package events
