package events

import (
	"sort"
	"sync"
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationEventDelivered      NotificationType = "event.delivered"
	NotificationEventBroadcast      NotificationType = "event.broadcast"
	NotificationEventAbandoned      NotificationType = "event.abandoned"
	NotificationProcessSubscribed   NotificationType = "process.subscribed"
	NotificationProcessUnsubscribed NotificationType = "process.unsubscribed"
)

// Notification is an observable protocol occurrence published by the
// simulation host: a delivery upcall, a broadcast, or a membership change.
type Notification struct {
	Type      NotificationType
	Timestamp time.Time
	Tick      int
	ProcessID int
	EventID   string
	Origin    int
	Age       int
}

// ObserverFunc handles one notification. Observers run synchronously on the
// publisher's goroutine, in subscription order; a notification published at
// tick t is fully observed before the simulation moves on. Observers must
// not call back into the broker's publish path.
type ObserverFunc func(*Notification)

// Broker fans protocol notifications out to registered observers. The
// publisher is the single-threaded simulation loop, so distribution is a
// plain synchronous call per observer: nothing is buffered and nothing is
// dropped, which the trace recorder relies on for a complete delivery
// record.
type Broker struct {
	mu        sync.RWMutex
	observers map[int]ObserverFunc
	nextID    int
}

// NewBroker creates a new notification broker
func NewBroker() *Broker {
	return &Broker{
		observers: make(map[int]ObserverFunc),
	}
}

// Subscribe registers an observer and returns its subscription id.
func (b *Broker) Subscribe(fn ObserverFunc) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.observers[id] = fn
	return id
}

// Unsubscribe removes an observer. Publish calls that start after
// Unsubscribe returns do not invoke it; a Publish already in progress works
// from its own snapshot and may still invoke it once.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.observers, id)
}

// Publish distributes a notification to every observer, in subscription
// order.
func (b *Broker) Publish(n *Notification) {
	// Set timestamp if not set
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	for _, fn := range b.snapshot() {
		fn(n)
	}
}

// snapshot copies the observer list so observers can unsubscribe themselves
// mid-notification without deadlocking.
func (b *Broker) snapshot() []ObserverFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]int, 0, len(b.observers))
	for id := range b.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fns := make([]ObserverFunc, len(ids))
	for i, id := range ids {
		fns[i] = b.observers[id]
	}
	return fns
}

// ObserverCount returns the number of registered observers
func (b *Broker) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}
