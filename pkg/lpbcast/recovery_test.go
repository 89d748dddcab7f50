package lpbcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveMissing_WaitsForKRecovery(t *testing.T) {
	host := newFakeHost()
	sender := &recordingReceiver{}
	host.peers[2] = sender
	p := newTestProcess(1, host, 2)

	id := NewEventID(3)
	p.retrieve = []MissingEvent{{ID: id, DiscoveredAt: 0, ObservedFrom: 2}}

	p.retrieveMissingEvents(20)
	assert.Len(t, p.retrieve, 1, "gap younger than the recovery delay stays pending")
	assert.Empty(t, sender.retrieveRequests())

	p.retrieveMissingEvents(21)
	assert.Empty(t, p.retrieve)
	require.Len(t, p.active, 1)
	assert.Equal(t, StageSender, p.active[0].Stage)
	assert.Equal(t, Tick(21), p.active[0].SentAt)

	requests := sender.retrieveRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, id, requests[0].ID)
	assert.Equal(t, ProcessID(1), requests[0].From)
}

func TestRetrieveMissing_DiscardsDeliveredGaps(t *testing.T) {
	host := newFakeHost()
	sender := &recordingReceiver{}
	host.peers[2] = sender
	p := newTestProcess(1, host, 2)

	e := Event{ID: NewEventID(3)}
	p.processEvent(e)
	p.retrieve = []MissingEvent{{ID: e.ID, DiscoveredAt: 0, ObservedFrom: 2}}

	p.retrieveMissingEvents(50)

	assert.Empty(t, p.retrieve)
	assert.Empty(t, p.active)
	assert.Empty(t, sender.retrieveRequests())
}

func TestRetrieveMissing_SingleRequestPerEvent(t *testing.T) {
	host := newFakeHost()
	sender := &recordingReceiver{}
	host.peers[2] = sender
	p := newTestProcess(1, host, 2)

	id := NewEventID(3)
	p.active = []ActiveRetrieveRequest{{ID: id, SentAt: 10, Stage: StageSender}}
	p.retrieve = []MissingEvent{{ID: id, DiscoveredAt: 0, ObservedFrom: 2}}

	p.retrieveMissingEvents(50)

	assert.Empty(t, p.retrieve)
	assert.Len(t, p.active, 1)
	assert.Empty(t, sender.retrieveRequests())
}

func TestUpdateActive_AdvancesThroughStages(t *testing.T) {
	host := newFakeHost()
	viewPeer := &recordingReceiver{}
	origin := &recordingReceiver{}
	host.peers[2] = viewPeer
	host.peers[9] = origin
	p := newTestProcess(1, host, 2)

	id := NewEventID(9)
	p.active = []ActiveRetrieveRequest{{ID: id, SentAt: 0, Stage: StageSender}}

	// Sender stage times out: retry through a random view peer.
	p.updateActiveRetrieveRequests(20)
	require.Len(t, p.active, 1)
	assert.Equal(t, StageRandom, p.active[0].Stage)
	assert.Equal(t, Tick(20), p.active[0].SentAt)
	assert.Len(t, viewPeer.retrieveRequests(), 1)

	// Random stage times out: last resort is the originator.
	p.updateActiveRetrieveRequests(40)
	require.Len(t, p.active, 1)
	assert.Equal(t, StageOriginator, p.active[0].Stage)
	assert.Len(t, origin.retrieveRequests(), 1)

	// Originator stage times out: give up.
	p.updateActiveRetrieveRequests(60)
	assert.Empty(t, p.active)
}

func TestUpdateActive_EmptyViewSkipsRandomStage(t *testing.T) {
	host := newFakeHost()
	origin := &recordingReceiver{}
	host.peers[9] = origin
	p := newTestProcess(1, host)

	id := NewEventID(9)
	p.active = []ActiveRetrieveRequest{{ID: id, SentAt: 0, Stage: StageSender}}

	p.updateActiveRetrieveRequests(20)

	require.Len(t, p.active, 1)
	assert.Equal(t, StageOriginator, p.active[0].Stage)
	assert.Len(t, origin.retrieveRequests(), 1)
}

func TestUpdateActive_KeepsFreshRequests(t *testing.T) {
	host := newFakeHost()
	p := newTestProcess(1, host, 2)

	id := NewEventID(9)
	p.active = []ActiveRetrieveRequest{{ID: id, SentAt: 10, Stage: StageSender}}

	p.updateActiveRetrieveRequests(29)

	require.Len(t, p.active, 1)
	assert.Equal(t, StageSender, p.active[0].Stage)
	assert.Equal(t, Tick(10), p.active[0].SentAt)
}

func TestRetrieveRequestHandler_RepliesFromLiveBuffer(t *testing.T) {
	host := newFakeHost()
	requester := &recordingReceiver{}
	host.peers[2] = requester
	p := newTestProcess(1, host)

	e := Event{ID: NewEventID(1), Age: 4}
	p.events[e.ID] = &e

	p.retrieveRequestHandler(&RetrieveRequest{From: 2, ID: e.ID})

	require.Len(t, requester.messages, 1)
	reply, ok := requester.messages[0].(*RetrieveReply)
	require.True(t, ok)
	assert.Equal(t, e.ID, reply.Event.ID)
	assert.Equal(t, ProcessID(1), reply.From)
}

func TestRetrieveRequestHandler_RepliesFromArchive(t *testing.T) {
	host := newFakeHost()
	requester := &recordingReceiver{}
	host.peers[2] = requester
	p := newTestProcess(1, host)

	e := Event{ID: NewEventID(1), Age: 4}
	p.archived[e.ID] = archivedEvent{Event: e, AdmittedAt: 3}

	p.retrieveRequestHandler(&RetrieveRequest{From: 2, ID: e.ID})

	require.Len(t, requester.messages, 1)
}

func TestRetrieveRequestHandler_AtMostOneReply(t *testing.T) {
	host := newFakeHost()
	requester := &recordingReceiver{}
	host.peers[2] = requester
	p := newTestProcess(1, host)

	e := Event{ID: NewEventID(1), Age: 4}
	p.events[e.ID] = &e
	p.archived[e.ID] = archivedEvent{Event: e, AdmittedAt: 3}

	p.retrieveRequestHandler(&RetrieveRequest{From: 2, ID: e.ID})

	assert.Len(t, requester.messages, 1)
}

func TestRetrieveRequestHandler_SilentWhenUnknown(t *testing.T) {
	host := newFakeHost()
	requester := &recordingReceiver{}
	host.peers[2] = requester
	p := newTestProcess(1, host)

	p.retrieveRequestHandler(&RetrieveRequest{From: 2, ID: NewEventID(1)})

	assert.Empty(t, requester.messages)
}

func TestRetrieveReplyHandler_SettlesRequestsAndDelivers(t *testing.T) {
	host := newFakeHost()
	p := newTestProcess(1, host)

	e := Event{ID: NewEventID(9), Age: 7}
	other := NewEventID(8)
	p.active = []ActiveRetrieveRequest{
		{ID: e.ID, SentAt: 0, Stage: StageRandom},
		{ID: other, SentAt: 5, Stage: StageSender},
	}

	p.retrieveReplyHandler(&RetrieveReply{From: 2, Event: e}, 30)

	require.Len(t, p.active, 1)
	assert.Equal(t, other, p.active[0].ID)
	assert.True(t, p.Delivered(e.ID))
	assert.Len(t, host.delivered, 1)
}

func TestRetrieveReplyHandler_DuplicateReplyIsIdempotent(t *testing.T) {
	host := newFakeHost()
	p := newTestProcess(1, host)

	e := Event{ID: NewEventID(9), Age: 7}
	p.active = []ActiveRetrieveRequest{{ID: e.ID, SentAt: 0, Stage: StageSender}}

	p.retrieveReplyHandler(&RetrieveReply{From: 2, Event: e}, 30)
	p.retrieveReplyHandler(&RetrieveReply{From: 3, Event: e}, 31)

	assert.Empty(t, p.active)
	assert.Len(t, host.delivered, 1)
}
