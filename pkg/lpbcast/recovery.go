package lpbcast

import "github.com/lucazanella/lpbcast/pkg/metrics"

// retrieveMissingEvents promotes gaps that have stayed open for more than
// KRecovery ticks into active retrieve requests, aimed first at the process
// that advertised the event. Gaps closed by regular gossip in the meantime
// are discarded.
func (p *Process) retrieveMissingEvents(now Tick) {
	remaining := p.retrieve[:0]
	for _, me := range p.retrieve {
		if now-me.DiscoveredAt <= Tick(p.cfg.KRecovery) {
			remaining = append(remaining, me)
			continue
		}
		if _, ok := p.delivered[me.ID]; ok {
			continue
		}
		if p.hasActiveRequest(me.ID) {
			continue
		}

		p.sendRetrieveRequest(me.ObservedFrom, me.ID, StageSender)
		p.active = append(p.active, ActiveRetrieveRequest{
			ID:     me.ID,
			SentAt: now,
			Stage:  StageSender,
		})
	}
	p.retrieve = remaining
}

// updateActiveRetrieveRequests advances requests that have waited a full
// RecoveryTimeout without a reply: sender, then a random peer, then the
// event's origin, then give up. An empty view skips the random stage.
func (p *Process) updateActiveRetrieveRequests(now Tick) {
	remaining := p.active[:0]
	for _, ar := range p.active {
		if now-ar.SentAt < Tick(p.cfg.RecoveryTimeout) {
			remaining = append(remaining, ar)
			continue
		}

		switch ar.Stage {
		case StageSender:
			if len(p.view) > 0 {
				target := pickRandom(p, sortedPeers(p.view))
				p.sendRetrieveRequest(target, ar.ID, StageRandom)
				ar.Stage = StageRandom
			} else {
				p.sendRetrieveRequest(ar.ID.Origin, ar.ID, StageOriginator)
				ar.Stage = StageOriginator
			}
			ar.SentAt = now
			remaining = append(remaining, ar)

		case StageRandom:
			p.sendRetrieveRequest(ar.ID.Origin, ar.ID, StageOriginator)
			ar.Stage = StageOriginator
			ar.SentAt = now
			remaining = append(remaining, ar)

		case StageOriginator:
			metrics.EventsAbandonedTotal.Inc()
			p.logger.Warn().Str("event_id", ar.ID.String()).Msg("Giving up on missing event")
		}
	}
	p.active = remaining
}

func (p *Process) hasActiveRequest(id EventID) bool {
	for _, ar := range p.active {
		if ar.ID == id {
			return true
		}
	}
	return false
}

func (p *Process) sendRetrieveRequest(target ProcessID, id EventID, stage RetrieveStage) {
	metrics.RetrieveRequestsTotal.WithLabelValues(stage.String()).Inc()
	p.logger.Debug().
		Str("event_id", id.String()).
		Int("target", int(target)).
		Str("stage", stage.String()).
		Msg("Requesting retransmission")
	p.send(target, &RetrieveRequest{From: p.id, ID: id})
}

// retrieveRequestHandler answers a retransmission request from whichever
// buffer still holds the event. At most one reply is sent even when the
// event sits in both the live buffer and the archive.
func (p *Process) retrieveRequestHandler(r *RetrieveRequest) {
	if e, ok := p.events[r.ID]; ok {
		p.send(r.From, &RetrieveReply{From: p.id, Event: e.Clone()})
		return
	}
	if a, ok := p.archived[r.ID]; ok {
		p.send(r.From, &RetrieveReply{From: p.id, Event: a.Event.Clone()})
	}
}

// retrieveReplyHandler settles every outstanding request for the event, then
// feeds the event through the normal delivery path.
func (p *Process) retrieveReplyHandler(r *RetrieveReply, now Tick) {
	remaining := p.active[:0]
	for _, ar := range p.active {
		if ar.ID != r.Event.ID {
			remaining = append(remaining, ar)
		}
	}
	p.active = remaining

	p.processEvent(r.Event)
	p.trimEvents(now)
	p.trimEventIDs()
}
