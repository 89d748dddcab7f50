package lpbcast

// Message is one of the three wire shapes exchanged between processes:
// Gossip, RetrieveRequest, or RetrieveReply. Handlers dispatch on the
// concrete type.
type Message interface {
	// Sender is the process the message was sent by.
	Sender() ProcessID
}

// Gossip is the per-round digest a process sends to its fanout targets:
// recent events, recent subscription and unsubscription announcements, and
// the identifiers of events already delivered (for gap detection).
type Gossip struct {
	From     ProcessID
	Events   []Event
	Subs     []ProcessID
	Unsubs   []ProcessID
	EventIDs []EventID
}

func (g *Gossip) Sender() ProcessID { return g.From }

// Clone deep-copies the gossip so each recipient owns its payload.
func (g *Gossip) Clone() *Gossip {
	c := &Gossip{
		From:     g.From,
		Events:   make([]Event, len(g.Events)),
		Subs:     make([]ProcessID, len(g.Subs)),
		Unsubs:   make([]ProcessID, len(g.Unsubs)),
		EventIDs: make([]EventID, len(g.EventIDs)),
	}
	for i, e := range g.Events {
		c.Events[i] = e.Clone()
	}
	copy(c.Subs, g.Subs)
	copy(c.Unsubs, g.Unsubs)
	copy(c.EventIDs, g.EventIDs)
	return c
}

// RetrieveRequest asks the receiver to retransmit an event it may still hold.
type RetrieveRequest struct {
	From ProcessID
	ID   EventID
}

func (r *RetrieveRequest) Sender() ProcessID { return r.From }

// RetrieveReply carries a retransmitted event back to the requester.
type RetrieveReply struct {
	From  ProcessID
	Event Event
}

func (r *RetrieveReply) Sender() ProcessID { return r.From }

// inboundMessage is a queued message stamped with the tick at which it
// becomes eligible for dispatch.
type inboundMessage struct {
	msg       Message
	deliverAt Tick
}
