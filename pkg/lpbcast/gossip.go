package lpbcast

import "github.com/lucazanella/lpbcast/pkg/metrics"

// gossip emits one round: age every buffered event, assemble the digest,
// dispatch deep clones to fanout-many distinct random peers, rotate the
// event buffer into the archive, and complete a requested departure.
func (p *Process) gossip(now Tick) {
	for _, e := range p.events {
		e.Age++
	}

	gossipSubs := sortedPeers(p.subs)
	if !p.unsubscriptionRequested {
		gossipSubs = append(gossipSubs, p.id)
	} else {
		p.unSubs[p.id] = now
	}
	gossipUnsubs := sortedPeers(p.unSubs)

	msg := &Gossip{
		From:     p.id,
		Subs:     gossipSubs,
		Unsubs:   gossipUnsubs,
		Events:   make([]Event, 0, len(p.events)),
		EventIDs: make([]EventID, len(p.eventIDs)),
	}
	for _, id := range sortedEventKeys(p.events) {
		msg.Events = append(msg.Events, p.events[id].Clone())
	}
	copy(msg.EventIDs, p.eventIDs)

	for _, target := range p.selectGossipTargets() {
		p.send(target, msg.Clone())
		metrics.GossipMessagesTotal.Inc()
	}

	// Rotate: everything gossiped this round retires to the archive.
	for _, id := range sortedEventKeys(p.events) {
		p.archiveEvent(*p.events[id], now)
	}
	p.events = make(map[EventID]*Event)
	p.trimArchivedEvents()

	if p.unsubscriptionRequested {
		p.depart()
	}
}

// selectGossipTargets samples min(Fanout, |view|) distinct peers uniformly
// at random. A partial Fisher-Yates shuffle over the sorted key list keeps
// the draw unbiased without the risk of a rejection loop spinning when the
// view is barely larger than the fanout.
func (p *Process) selectGossipTargets() []ProcessID {
	keys := sortedPeers(p.view)
	n := p.cfg.Fanout
	if len(keys) < n {
		n = len(keys)
	}
	for i := 0; i < n; i++ {
		j := p.host.RandInt(i, len(keys)-1)
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys[:n]
}

// depart empties every buffer and goes quiescent. Inbound messages are
// dropped from here until a subsequent Subscribe.
func (p *Process) depart() {
	p.view = make(map[ProcessID]int)
	p.subs = make(map[ProcessID]int)
	p.unSubs = make(map[ProcessID]Tick)
	p.events = make(map[EventID]*Event)
	p.eventIDs = nil
	p.delivered = make(map[EventID]struct{})
	p.archived = make(map[EventID]archivedEvent)
	p.retrieve = nil
	p.active = nil

	p.inboxMu.Lock()
	p.inbox = nil
	p.isUnsubscribed = true
	p.inboxMu.Unlock()

	p.unsubscriptionRequested = false
	p.logger.Info().Msg("Unsubscribed")
}
