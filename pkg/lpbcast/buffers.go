package lpbcast

import (
	"bytes"
	"sort"
)

// sortedPeers returns the keys of a peer buffer in ascending order. Map
// iteration order is not stable; every random pick indexes into a sorted key
// list so runs with the same seed stay reproducible.
func sortedPeers[V any](m map[ProcessID]V) []ProcessID {
	keys := make([]ProcessID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// sortedEventKeys returns event identifiers in a stable order (UUID bytes,
// then origin).
func sortedEventKeys[V any](m map[EventID]V) []EventID {
	keys := make([]EventID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].UniqueID[:], keys[j].UniqueID[:]); c != 0 {
			return c < 0
		}
		return keys[i].Origin < keys[j].Origin
	})
	return keys
}

// pickRandom returns a uniformly random element of a non-empty slice.
func pickRandom[T any](p *Process, items []T) T {
	return items[p.host.RandInt(0, len(items)-1)]
}

// selectProcess picks a buffer entry for eviction. With frequency-based
// purging enabled the pick is biased toward entries whose propagation
// frequency exceeds K times the buffer average: peers the whole system
// already knows are safe to forget locally, rare peers are retained. Each
// rejected candidate has its frequency bumped, so the loop terminates with
// probability 1 for K < 1.
func (p *Process) selectProcess(buffer map[ProcessID]int) ProcessID {
	keys := sortedPeers(buffer)
	if !p.cfg.FrequencyBasedMembershipPurging {
		return pickRandom(p, keys)
	}

	var sum int
	for _, f := range buffer {
		sum += f
	}
	avg := 0.0
	if len(buffer) > 0 {
		avg = float64(sum) / float64(len(buffer))
	}

	for {
		k := pickRandom(p, keys)
		if float64(buffer[k]) > p.cfg.K*avg {
			return k
		}
		buffer[k]++
	}
}

// trimUnSubs first expires entries past their validity window, then falls
// back to random eviction until the buffer fits.
func (p *Process) trimUnSubs(now Tick) {
	if len(p.unSubs) <= p.cfg.UnsubsMax {
		return
	}

	for _, u := range sortedPeers(p.unSubs) {
		if p.unSubs[u]+Tick(p.cfg.UnsubsValidity) <= now {
			delete(p.unSubs, u)
		}
	}

	for len(p.unSubs) > p.cfg.UnsubsMax {
		delete(p.unSubs, pickRandom(p, sortedPeers(p.unSubs)))
	}
}

// trimView evicts peers over capacity, demoting each to the subscription
// pool so it keeps circulating in gossip even after it stops being a target.
func (p *Process) trimView() {
	for len(p.view) > p.cfg.ViewMax {
		target := p.selectProcess(p.view)
		freq := p.view[target]
		delete(p.view, target)
		p.subs[target] = freq
	}
}

func (p *Process) trimSubs() {
	for len(p.subs) > p.cfg.SubsMax {
		delete(p.subs, p.selectProcess(p.subs))
	}
}

// trimEvents enforces the events cap. With age-based purging the first stage
// drops events already beaten by a much fresher event from the same origin;
// the second stage archives the oldest until the buffer fits. Without it,
// eviction is uniformly random.
func (p *Process) trimEvents(now Tick) {
	if p.cfg.AgeBasedMessagePurging {
		p.trimEventsStageA()
		p.trimEventsStageB(now)
	} else {
		for len(p.events) > p.cfg.EventsMax {
			id := pickRandom(p, sortedEventKeys(p.events))
			p.archiveEvent(*p.events[id], now)
			delete(p.events, id)
		}
	}

	p.trimArchivedEvents()
}

// trimEventsStageA removes events older than some sibling from the same
// origin by more than LongAgo hops. Obsolete events are dropped outright,
// not archived.
func (p *Process) trimEventsStageA() {
	for len(p.events) > p.cfg.EventsMax {
		var beaten []EventID
		for _, id := range sortedEventKeys(p.events) {
			e := p.events[id]
			for _, c := range p.events {
				if c.ID.Origin == e.ID.Origin && c.Age-e.Age > p.cfg.LongAgo {
					beaten = append(beaten, id)
					break
				}
			}
		}
		if len(beaten) == 0 {
			return
		}
		for _, id := range beaten {
			delete(p.events, id)
		}
	}
}

func (p *Process) trimEventsStageB(now Tick) {
	for len(p.events) > p.cfg.EventsMax {
		var oldest EventID
		oldestAge := -1
		for _, id := range sortedEventKeys(p.events) {
			if e := p.events[id]; e.Age > oldestAge {
				oldest = id
				oldestAge = e.Age
			}
		}
		p.archiveEvent(*p.events[oldest], now)
		delete(p.events, oldest)
	}
}

// trimEventIDs drops the oldest delivery records first; the buffer is FIFO.
func (p *Process) trimEventIDs() {
	for len(p.eventIDs) > p.cfg.EventIDsMax {
		head := p.eventIDs[0]
		p.eventIDs = p.eventIDs[1:]
		delete(p.delivered, head)
	}
}

func (p *Process) archiveEvent(e Event, now Tick) {
	p.archived[e.ID] = archivedEvent{Event: e.Clone(), AdmittedAt: now}
}

// trimArchivedEvents evicts the longest-archived entries until the archive
// fits.
func (p *Process) trimArchivedEvents() {
	for len(p.archived) > p.cfg.ArchivedMax {
		var oldest EventID
		oldestAt := Tick(-1)
		for _, id := range sortedEventKeys(p.archived) {
			a := p.archived[id]
			if oldestAt == -1 || a.AdmittedAt < oldestAt {
				oldest = id
				oldestAt = a.AdmittedAt
			}
		}
		delete(p.archived, oldest)
	}
}
