package lpbcast

import (
	"fmt"
	"sync"

	"github.com/lucazanella/lpbcast/pkg/config"
	"github.com/lucazanella/lpbcast/pkg/log"
	"github.com/lucazanella/lpbcast/pkg/metrics"
	"github.com/rs/zerolog"
)

// Process is one participant in the probabilistic broadcast protocol. All
// state mutation happens inside Step, which the host invokes once per tick;
// Receive is the only entry point called from other processes.
type Process struct {
	id     ProcessID
	cfg    config.Protocol
	host   Host
	logger zerolog.Logger

	// inbox is the only cross-process mutation point.
	inboxMu sync.Mutex
	inbox   []inboundMessage

	// view maps known peers to propagation frequency.
	view map[ProcessID]int
	// subs maps recently announced subscribers to propagation frequency.
	subs map[ProcessID]int
	// unSubs maps recently departed peers to the tick they were admitted.
	unSubs map[ProcessID]Tick

	// events holds events received since the last outgoing gossip, keyed by
	// identifier.
	events map[EventID]*Event
	// eventIDs is the FIFO delivery record; delivered mirrors it for O(1)
	// membership checks.
	eventIDs  []EventID
	delivered map[EventID]struct{}
	// archived holds retired events serving retransmission.
	archived map[EventID]archivedEvent

	retrieve []MissingEvent
	active   []ActiveRetrieveRequest

	isUnsubscribed          bool
	unsubscriptionRequested bool
}

// New constructs a subscribed process with the given initial view. The
// configuration is validated up front; a process cannot be built from
// constants the protocol cannot run with.
func New(id ProcessID, cfg config.Protocol, host Host, peers ...ProcessID) (*Process, error) {
	if host == nil {
		return nil, fmt.Errorf("lpbcast: host must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("lpbcast: %w", err)
	}

	p := &Process{
		id:        id,
		cfg:       cfg,
		host:      host,
		logger:    log.WithProcessID(int(id)),
		view:      make(map[ProcessID]int),
		subs:      make(map[ProcessID]int),
		unSubs:    make(map[ProcessID]Tick),
		events:    make(map[EventID]*Event),
		delivered: make(map[EventID]struct{}),
		archived:  make(map[EventID]archivedEvent),
	}
	for _, peer := range peers {
		if peer == id {
			continue
		}
		p.view[peer] = 0
	}
	return p, nil
}

// ID returns the process identifier.
func (p *Process) ID() ProcessID { return p.id }

// IsUnsubscribed reports whether the process is quiescent.
func (p *Process) IsUnsubscribed() bool { return p.isUnsubscribed }

// Delivered reports whether the event has been delivered locally.
func (p *Process) Delivered(id EventID) bool {
	_, ok := p.delivered[id]
	return ok
}

// Stats returns a snapshot of buffer occupancy for metrics collection.
func (p *Process) Stats() metrics.ProcessStats {
	return metrics.ProcessStats{
		ProcessID:       int(p.id),
		View:            len(p.view),
		Subs:            len(p.subs),
		Unsubs:          len(p.unSubs),
		Events:          len(p.events),
		EventIDs:        len(p.eventIDs),
		Archived:        len(p.archived),
		PendingRetrieve: len(p.retrieve),
		ActiveRequests:  len(p.active),
		Unsubscribed:    p.isUnsubscribed,
	}
}

// View returns the current gossip targets in deterministic order.
func (p *Process) View() []ProcessID {
	return sortedPeers(p.view)
}

// Subs returns the peers currently in the subscription pool.
func (p *Process) Subs() []ProcessID {
	return sortedPeers(p.subs)
}

// Unsubs returns the peers currently recorded as departed.
func (p *Process) Unsubs() []ProcessID {
	return sortedPeers(p.unSubs)
}

// Receive enqueues an inbound message, stamping it with its delivery tick.
// Safe for concurrent use by many senders. A quiescent process drops
// everything on the floor.
func (p *Process) Receive(msg Message) {
	p.inboxMu.Lock()
	defer p.inboxMu.Unlock()

	if p.isUnsubscribed {
		return
	}

	now := p.host.Now()
	deliverAt := now + 1
	if !p.cfg.Sync {
		deliverAt = now + Tick(p.host.RandInt(1, p.cfg.MessageMaxDelay))
	}
	p.inbox = append(p.inbox, inboundMessage{msg: msg, deliverAt: deliverAt})
}

// Step runs one protocol tick: drain eligible messages, sweep the recovery
// state machine, and emit one gossip round. The host calls it exactly once
// per tick.
func (p *Process) Step() {
	if p.isUnsubscribed {
		return
	}

	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.StepDuration)
	}()

	now := p.host.Now()

	for _, msg := range p.drainEligible(now) {
		p.dispatch(msg, now)
	}

	p.retrieveMissingEvents(now)
	p.updateActiveRetrieveRequests(now)

	p.gossip(now)
}

// drainEligible removes and returns, in queue order, every message whose
// delivery tick has arrived.
func (p *Process) drainEligible(now Tick) []Message {
	p.inboxMu.Lock()
	defer p.inboxMu.Unlock()

	var ready []Message
	remaining := p.inbox[:0]
	for _, in := range p.inbox {
		if in.deliverAt <= now {
			ready = append(ready, in.msg)
		} else {
			remaining = append(remaining, in)
		}
	}
	p.inbox = remaining
	return ready
}

func (p *Process) dispatch(msg Message, now Tick) {
	switch m := msg.(type) {
	case *Gossip:
		p.gossipHandler(m, now)
	case *RetrieveRequest:
		p.retrieveRequestHandler(m)
	case *RetrieveReply:
		p.retrieveReplyHandler(m, now)
	default:
		p.logger.Warn().Msgf("Dropping message of unknown type %T", msg)
	}
}

// gossipHandler ingests an inbound digest. Unsubscriptions apply before
// subscriptions so a departing peer cannot be re-added by a subscription
// entry carried in the same message.
func (p *Process) gossipHandler(g *Gossip, now Tick) {
	// Unsubscriptions: evict and block.
	for _, u := range g.Unsubs {
		delete(p.view, u)
		delete(p.subs, u)
		if _, ok := p.unSubs[u]; !ok {
			p.unSubs[u] = now
		}
	}
	p.trimUnSubs(now)

	// Subscriptions: admit unknown peers, bump frequencies. Entries still in
	// unSubs stay blocked.
	for _, s := range g.Subs {
		if s == p.id {
			continue
		}
		if _, blocked := p.unSubs[s]; blocked {
			continue
		}
		if _, ok := p.view[s]; !ok {
			p.view[s] = 0
		}
		p.view[s]++
		if _, ok := p.subs[s]; !ok {
			p.subs[s] = 0
		}
		p.subs[s]++
	}
	p.trimView()
	p.trimSubs()

	// Events.
	for _, e := range g.Events {
		p.processEvent(e)
	}
	p.trimEvents(now)

	// Gap detection: identifiers we have never delivered and are not already
	// chasing become recovery candidates.
	for _, id := range g.EventIDs {
		if _, ok := p.delivered[id]; ok {
			continue
		}
		if p.hasMissing(id) {
			continue
		}
		p.retrieve = append(p.retrieve, MissingEvent{
			ID:           id,
			DiscoveredAt: now,
			ObservedFrom: g.From,
		})
	}
	p.trimEventIDs()
}

// processEvent delivers an event at most once and keeps the recorded age of
// a known event at the maximum observed across arrival paths.
func (p *Process) processEvent(e Event) {
	if _, ok := p.delivered[e.ID]; !ok {
		ev := e.Clone()
		p.events[ev.ID] = &ev
		p.host.Deliver(p.id, ev.Clone())
		p.recordDelivery(ev.ID)
		metrics.EventsDeliveredTotal.Inc()
		p.logger.Debug().Str("event_id", ev.ID.String()).Int("age", ev.Age).Msg("Event delivered")
	}
	if x, ok := p.events[e.ID]; ok && x.Age < e.Age {
		x.Age = e.Age
	}
}

func (p *Process) recordDelivery(id EventID) {
	p.eventIDs = append(p.eventIDs, id)
	p.delivered[id] = struct{}{}
}

func (p *Process) hasMissing(id EventID) bool {
	for _, me := range p.retrieve {
		if me.ID == id {
			return true
		}
	}
	return false
}

// send resolves the target and hands over the message. A vanished target is
// a silent no-op: it has left the system.
func (p *Process) send(target ProcessID, msg Message) {
	handle := p.host.Resolve(target)
	if handle == nil {
		return
	}
	handle.Receive(msg)
}

// Broadcast injects a fresh application event into the dissemination stream.
// The event is recorded as delivered locally but the application upcall is
// not invoked for the originator.
func (p *Process) Broadcast() EventID {
	ev := Event{ID: NewEventID(p.id), Age: 0}
	p.events[ev.ID] = &ev
	p.recordDelivery(ev.ID)
	p.trimEventIDs()
	p.logger.Info().Str("event_id", ev.ID.String()).Msg("Broadcasting event")
	return ev.ID
}

// Subscribe rejoins the system through the given peer. Only a quiescent
// process can subscribe.
func (p *Process) Subscribe(target ProcessID) error {
	if !p.isUnsubscribed {
		return fmt.Errorf("lpbcast: process %d is already subscribed", p.id)
	}

	p.inboxMu.Lock()
	p.inbox = nil
	p.isUnsubscribed = false
	p.inboxMu.Unlock()

	p.view[target] = 0
	p.logger.Info().Int("target", int(target)).Msg("Subscribed")
	return nil
}

// Unsubscribe latches departure; the process leaves after its next gossip
// round so the unsubscription can still be propagated.
func (p *Process) Unsubscribe() {
	p.unsubscriptionRequested = true
	p.logger.Info().Msg("Unsubscription requested")
}
