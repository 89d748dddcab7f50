package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_PublishReachesAllObservers(t *testing.T) {
	b := NewBroker()

	var first, second []*Notification
	b.Subscribe(func(n *Notification) { first = append(first, n) })
	b.Subscribe(func(n *Notification) { second = append(second, n) })
	assert.Equal(t, 2, b.ObserverCount())

	b.Publish(&Notification{
		Type:      NotificationEventDelivered,
		Tick:      3,
		ProcessID: 7,
		EventID:   "abc@1",
	})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, NotificationEventDelivered, first[0].Type)
	assert.Equal(t, 7, first[0].ProcessID)
	assert.False(t, first[0].Timestamp.IsZero(), "publish stamps missing timestamps")
}

func TestBroker_ObserversRunInSubscriptionOrder(t *testing.T) {
	b := NewBroker()

	var order []string
	b.Subscribe(func(*Notification) { order = append(order, "a") })
	b.Subscribe(func(*Notification) { order = append(order, "b") })
	b.Subscribe(func(*Notification) { order = append(order, "c") })

	b.Publish(&Notification{Type: NotificationEventBroadcast})

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestBroker_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()

	var got []*Notification
	id := b.Subscribe(func(n *Notification) { got = append(got, n) })

	b.Publish(&Notification{Type: NotificationEventDelivered})
	b.Unsubscribe(id)
	b.Publish(&Notification{Type: NotificationEventDelivered})

	assert.Len(t, got, 1)
	assert.Equal(t, 0, b.ObserverCount())
}

func TestBroker_ObserverMayUnsubscribeItself(t *testing.T) {
	b := NewBroker()

	calls := 0
	var id int
	id = b.Subscribe(func(*Notification) {
		calls++
		b.Unsubscribe(id)
	})

	b.Publish(&Notification{Type: NotificationEventDelivered})
	b.Publish(&Notification{Type: NotificationEventDelivered})

	assert.Equal(t, 1, calls)
}

func TestBroker_PublishWithoutObservers(t *testing.T) {
	b := NewBroker()

	assert.NotPanics(t, func() {
		b.Publish(&Notification{Type: NotificationProcessUnsubscribed})
	})
}

func TestBroker_PreservesExplicitTimestamp(t *testing.T) {
	b := NewBroker()

	var got *Notification
	b.Subscribe(func(n *Notification) { got = n })

	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.Publish(&Notification{Type: NotificationProcessSubscribed, Timestamp: stamp})

	require.NotNil(t, got)
	assert.Equal(t, stamp, got.Timestamp)
}
