/*
Package lpbcast implements the per-process core of a lightweight
probabilistic broadcast protocol.

Each process keeps a bounded partial view of the membership and, once per
tick, exchanges a fixed-size digest of events, subscriptions, and
unsubscriptions with a small random subset of known peers. Dissemination is
best-effort and unordered; missed events are recovered through a staged
retransmission state machine. There is no global membership authority and no
consensus anywhere: reliability is probabilistic and per-node state is
strictly bounded.

# Architecture

	┌───────────────────── ONE PROCESS / ONE TICK ──────────────────────┐
	│                                                                   │
	│  Receive (cross-process, thread-safe)                             │
	│       │ stamps delivery tick, appends                             │
	│       ▼                                                           │
	│  ┌─────────────┐   drain eligible    ┌──────────────────────┐     │
	│  │   inbox     ├────────────────────▶│  handler dispatch    │     │
	│  └─────────────┘    (FIFO order)     │  gossip / request /  │     │
	│                                      │  reply               │     │
	│                                      └──────────┬───────────┘     │
	│                                                 ▼                 │
	│  ┌───────────────────────────────────────────────────────────┐    │
	│  │ bounded buffers: view, subs, unSubs, events, eventIDs,    │    │
	│  │ archive — each trimmed by its own purging policy          │    │
	│  └──────────────────────────────┬────────────────────────────┘    │
	│                                 ▼                                 │
	│  recovery sweep: promote gaps, advance staged requests            │
	│                                 ▼                                 │
	│  gossip round: age events, assemble digest, send to F random      │
	│  peers, rotate events into the archive, complete departure        │
	│                                                                   │
	└───────────────────────────────────────────────────────────────────┘

# Buffers and purging

Every buffer has a hard cap enforced at tick boundary:

  - view: peers eligible as gossip targets. Overflow evicts via frequency-
    biased selection and demotes the evicted peer to subs so it keeps
    circulating.
  - subs / unSubs: membership announcements to re-propagate. unSubs entries
    also block re-admission of a departed peer. When unSubs overflows,
    entries past their validity window are expired first; under the cap,
    expired entries stay.
  - events: events received since the last round. Age-based purging first
    drops events beaten by a much fresher event from the same origin, then
    archives the oldest.
  - eventIDs: FIFO record of delivered identifiers, the at-most-once
    delivery guard and the gap detector's reference.
  - archive: retired events kept briefly to answer retransmission requests.

# Recovery

An identifier seen in a peer's digest but never delivered becomes a missing
event. After KRecovery ticks it is promoted to an active request aimed at the
process that advertised it; each RecoveryTimeout without a reply escalates to
a random peer, then the event's origin, then gives up.

# Concurrency

A process is single-threaded cooperative: all state mutation happens inside
Step, which the host invokes once per tick. Receive is the only entry point
called from other processes and only touches the mutex-guarded inbox.

# Usage

	p, err := lpbcast.New(1, cfg.Protocol, host, 2, 3)
	if err != nil {
		return err
	}

	p.Broadcast()        // inject an application event
	p.Step()             // host-driven, once per tick
	p.Unsubscribe()      // departs after the next gossip round

# See Also

  - pkg/sim for the discrete-event host driving Step
  - pkg/config for the protocol constants
*/
package lpbcast
