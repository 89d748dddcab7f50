package lpbcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGossip_FanoutClampedToView(t *testing.T) {
	host := newFakeHost()
	a := &recordingReceiver{}
	b := &recordingReceiver{}
	host.peers[2] = a
	host.peers[3] = b
	p := newTestProcess(1, host, 2, 3)

	// Fanout is 3 but only two peers are known: both get the round.
	p.gossip(0)

	assert.Len(t, a.gossips(), 1)
	assert.Len(t, b.gossips(), 1)
}

func TestGossip_DistinctTargets(t *testing.T) {
	host := newFakeHost()
	receivers := map[ProcessID]*recordingReceiver{}
	var peers []ProcessID
	for id := ProcessID(2); id <= 9; id++ {
		r := &recordingReceiver{}
		receivers[id] = r
		host.peers[id] = r
		peers = append(peers, id)
	}
	p := newTestProcess(1, host, peers...)

	for round := Tick(0); round < 20; round++ {
		p.gossip(round)
	}

	total := 0
	for _, r := range receivers {
		total += len(r.gossips())
		// No target may be hit twice within one round; 20 rounds mean at
		// most 20 messages per peer.
		assert.LessOrEqual(t, len(r.gossips()), 20)
	}
	assert.Equal(t, 20*p.cfg.Fanout, total)
}

func TestGossip_EmptyViewStillRotates(t *testing.T) {
	host := newFakeHost()
	p := newTestProcess(1, host)

	id := p.Broadcast()

	p.gossip(3)

	assert.Empty(t, p.events)
	require.Contains(t, p.archived, id)
	assert.Equal(t, Tick(3), p.archived[id].AdmittedAt)
}

func TestGossip_AgesEventsBeforeSending(t *testing.T) {
	host := newFakeHost()
	peer := &recordingReceiver{}
	host.peers[2] = peer
	p := newTestProcess(1, host, 2)

	id := p.Broadcast()

	p.gossip(0)

	gossips := peer.gossips()
	require.Len(t, gossips, 1)
	require.Len(t, gossips[0].Events, 1)
	assert.Equal(t, id, gossips[0].Events[0].ID)
	assert.Equal(t, 1, gossips[0].Events[0].Age)
	assert.Contains(t, gossips[0].EventIDs, id)
}

func TestGossip_RecipientsGetIndependentClones(t *testing.T) {
	host := newFakeHost()
	a := &recordingReceiver{}
	b := &recordingReceiver{}
	host.peers[2] = a
	host.peers[3] = b
	p := newTestProcess(1, host, 2, 3)

	id := p.Broadcast()
	p.gossip(0)

	ga, gb := a.gossips()[0], b.gossips()[0]
	ga.Events[0].Age = 99

	assert.Equal(t, 1, gb.Events[0].Age, "recipients must not share event storage")
	assert.Equal(t, 1, p.archived[id].Event.Age, "sender archive must not alias outbound copies")
}

func TestGossip_AnnouncesSelfInSubs(t *testing.T) {
	host := newFakeHost()
	peer := &recordingReceiver{}
	host.peers[2] = peer
	p := newTestProcess(1, host, 2)

	p.subs[4] = 2
	p.unSubs[5] = 0

	p.gossip(0)

	g := peer.gossips()[0]
	assert.ElementsMatch(t, []ProcessID{1, 4}, g.Subs)
	assert.ElementsMatch(t, []ProcessID{5}, g.Unsubs)
}
