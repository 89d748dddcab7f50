package lpbcast

import (
	"math/rand"

	"github.com/lucazanella/lpbcast/pkg/config"
)

// fakeHost is a scriptable in-memory host for white-box tests.
type fakeHost struct {
	tick  Tick
	rng   *rand.Rand
	peers map[ProcessID]Receiver

	// lowRand forces RandInt to always return lo, making selection
	// deterministic in tests that care about which entry gets picked.
	lowRand bool

	delivered []Event
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		rng:   rand.New(rand.NewSource(1)),
		peers: make(map[ProcessID]Receiver),
	}
}

func (h *fakeHost) Now() Tick { return h.tick }

func (h *fakeHost) RandInt(lo, hi int) int {
	if h.lowRand {
		return lo
	}
	return lo + h.rng.Intn(hi-lo+1)
}

func (h *fakeHost) Resolve(id ProcessID) Receiver {
	return h.peers[id]
}

func (h *fakeHost) Deliver(id ProcessID, e Event) {
	h.delivered = append(h.delivered, e)
}

// recordingReceiver captures every message addressed to one peer.
type recordingReceiver struct {
	messages []Message
}

func (r *recordingReceiver) Receive(msg Message) {
	r.messages = append(r.messages, msg)
}

func (r *recordingReceiver) gossips() []*Gossip {
	var out []*Gossip
	for _, m := range r.messages {
		if g, ok := m.(*Gossip); ok {
			out = append(out, g)
		}
	}
	return out
}

func (r *recordingReceiver) retrieveRequests() []*RetrieveRequest {
	var out []*RetrieveRequest
	for _, m := range r.messages {
		if rq, ok := m.(*RetrieveRequest); ok {
			out = append(out, rq)
		}
	}
	return out
}

// testProtocol returns the small-buffer configuration used across the core
// tests.
func testProtocol() config.Protocol {
	return config.Protocol{
		ViewMax:                         5,
		SubsMax:                         5,
		UnsubsMax:                       5,
		EventsMax:                       5,
		EventIDsMax:                     5,
		ArchivedMax:                     10,
		UnsubsValidity:                  50,
		LongAgo:                         10,
		K:                               0.5,
		Fanout:                          3,
		KRecovery:                       20,
		RecoveryTimeout:                 20,
		MessageMaxDelay:                 5,
		Sync:                            true,
		AgeBasedMessagePurging:          true,
		FrequencyBasedMembershipPurging: true,
	}
}

func newTestProcess(id ProcessID, host *fakeHost, peers ...ProcessID) *Process {
	p, err := New(id, testProtocol(), host, peers...)
	if err != nil {
		panic(err)
	}
	return p
}
