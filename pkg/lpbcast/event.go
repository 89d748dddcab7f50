package lpbcast

import (
	"fmt"

	"github.com/google/uuid"
)

// ProcessID identifies a process in the deployment.
type ProcessID int

// EventID identifies a broadcast event. Equality is on the pair
// (UniqueID, Origin); the same UUID broadcast by two origins is two events.
type EventID struct {
	UniqueID uuid.UUID
	Origin   ProcessID
}

// NewEventID creates a fresh event identifier originating at origin.
func NewEventID(origin ProcessID) EventID {
	return EventID{UniqueID: uuid.New(), Origin: origin}
}

func (id EventID) String() string {
	return fmt.Sprintf("%s@%d", id.UniqueID, id.Origin)
}

// Event is a broadcast notification traveling through the system. Age counts
// the hops since the origin broadcast and ranks events for purging.
type Event struct {
	ID  EventID
	Age int
}

// Clone returns an independent copy of the event. Outgoing gossip carries
// clones so recipients bumping Age cannot affect the sender's buffers.
func (e Event) Clone() Event {
	return Event{ID: e.ID, Age: e.Age}
}

// MissingEvent is a known gap: an identifier seen in a peer's digest that has
// not been delivered locally yet.
type MissingEvent struct {
	ID           EventID
	DiscoveredAt Tick
	ObservedFrom ProcessID
}

// RetrieveStage is the destination stage of an outstanding retrieve request.
// Recovery escalates from the process that advertised the event, to a random
// peer, to the event's origin, and then gives up.
type RetrieveStage int

const (
	StageSender RetrieveStage = iota
	StageRandom
	StageOriginator
)

func (s RetrieveStage) String() string {
	switch s {
	case StageSender:
		return "sender"
	case StageRandom:
		return "random"
	case StageOriginator:
		return "originator"
	default:
		return "unknown"
	}
}

// ActiveRetrieveRequest is an outstanding recovery request awaiting a reply.
type ActiveRetrieveRequest struct {
	ID     EventID
	SentAt Tick
	Stage  RetrieveStage
}

// archivedEvent is a retired event kept to answer retransmission requests,
// together with the tick it entered the archive.
type archivedEvent struct {
	Event      Event
	AdmittedAt Tick
}
