package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/lucazanella/lpbcast/pkg/config"
	"github.com/lucazanella/lpbcast/pkg/events"
	"github.com/lucazanella/lpbcast/pkg/log"
	"github.com/lucazanella/lpbcast/pkg/lpbcast"
	"github.com/lucazanella/lpbcast/pkg/metrics"
	"github.com/rs/zerolog"
)

// Simulator is the discrete-event host driving a set of processes. It owns
// the tick clock, the process registry, and a seeded random source, and it
// implements lpbcast.Host. Its random draws repeat for the same seed; event
// identifiers are not drawn from it.
type Simulator struct {
	cfg    *config.Config
	logger zerolog.Logger
	broker *events.Broker

	randMu sync.Mutex
	rng    *rand.Rand

	tick      lpbcast.Tick
	processes map[lpbcast.ProcessID]*lpbcast.Process
	order     []lpbcast.ProcessID

	hooks map[lpbcast.Tick][]func(*Simulator)

	deliveredTotal int
}

// New creates a simulator from a validated configuration. The broker is
// optional; without one, protocol activity is only logged.
func New(cfg *config.Config, broker *events.Broker) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Simulator{
		cfg:       cfg,
		logger:    log.WithComponent("simulator"),
		broker:    broker,
		rng:       rand.New(rand.NewSource(cfg.Simulation.Seed)),
		processes: make(map[lpbcast.ProcessID]*lpbcast.Process),
		hooks:     make(map[lpbcast.Tick][]func(*Simulator)),
	}, nil
}

// Now returns the current tick.
func (s *Simulator) Now() lpbcast.Tick {
	return s.tick
}

// RandInt returns a uniformly random integer in [lo, hi] inclusive.
func (s *Simulator) RandInt(lo, hi int) int {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return lo + s.rng.Intn(hi-lo+1)
}

// Resolve returns the handle for a registered process, or nil when the
// identifier is unknown so the send becomes a silent no-op.
func (s *Simulator) Resolve(id lpbcast.ProcessID) lpbcast.Receiver {
	p, ok := s.processes[id]
	if !ok {
		return nil
	}
	return p
}

// Deliver is the application upcall invoked on first delivery of an event.
func (s *Simulator) Deliver(id lpbcast.ProcessID, e lpbcast.Event) {
	s.deliveredTotal++
	s.publish(&events.Notification{
		Type:      events.NotificationEventDelivered,
		Tick:      int(s.tick),
		ProcessID: int(id),
		EventID:   e.ID.String(),
		Origin:    int(e.ID.Origin),
		Age:       e.Age,
	})
}

func (s *Simulator) publish(n *events.Notification) {
	if s.broker != nil {
		s.broker.Publish(n)
	}
}

// AddProcess registers a new process with the given initial view.
func (s *Simulator) AddProcess(id lpbcast.ProcessID, peers ...lpbcast.ProcessID) (*lpbcast.Process, error) {
	if _, ok := s.processes[id]; ok {
		return nil, fmt.Errorf("sim: process %d already registered", id)
	}

	p, err := lpbcast.New(id, s.cfg.Protocol, s, peers...)
	if err != nil {
		return nil, err
	}
	s.processes[id] = p
	s.order = append(s.order, id)
	return p, nil
}

// Mesh registers processes 1..n, each with every other process in its
// initial view.
func (s *Simulator) Mesh(n int) error {
	all := make([]lpbcast.ProcessID, n)
	for i := range all {
		all[i] = lpbcast.ProcessID(i + 1)
	}
	for _, id := range all {
		if _, err := s.AddProcess(id, all...); err != nil {
			return err
		}
	}
	return nil
}

// Process returns a registered process, or nil.
func (s *Simulator) Process(id lpbcast.ProcessID) *lpbcast.Process {
	return s.processes[id]
}

// At schedules a scripted action to run at the start of the given tick,
// before any process steps.
func (s *Simulator) At(tick int, fn func(*Simulator)) {
	t := lpbcast.Tick(tick)
	s.hooks[t] = append(s.hooks[t], fn)
}

// Broadcast injects an application event at the given originator and
// publishes a notification for observers.
func (s *Simulator) Broadcast(id lpbcast.ProcessID) (lpbcast.EventID, error) {
	p, ok := s.processes[id]
	if !ok {
		return lpbcast.EventID{}, fmt.Errorf("sim: unknown process %d", id)
	}

	eventID := p.Broadcast()
	s.publish(&events.Notification{
		Type:      events.NotificationEventBroadcast,
		Tick:      int(s.tick),
		ProcessID: int(id),
		EventID:   eventID.String(),
		Origin:    int(id),
	})
	return eventID, nil
}

// Unsubscribe requests departure of a process.
func (s *Simulator) Unsubscribe(id lpbcast.ProcessID) error {
	p, ok := s.processes[id]
	if !ok {
		return fmt.Errorf("sim: unknown process %d", id)
	}

	p.Unsubscribe()
	s.publish(&events.Notification{
		Type:      events.NotificationProcessUnsubscribed,
		Tick:      int(s.tick),
		ProcessID: int(id),
	})
	return nil
}

// Subscribe rejoins a quiescent process through a target peer.
func (s *Simulator) Subscribe(id, target lpbcast.ProcessID) error {
	p, ok := s.processes[id]
	if !ok {
		return fmt.Errorf("sim: unknown process %d", id)
	}

	if err := p.Subscribe(target); err != nil {
		return err
	}
	s.publish(&events.Notification{
		Type:      events.NotificationProcessSubscribed,
		Tick:      int(s.tick),
		ProcessID: int(id),
	})
	return nil
}

// Run advances the simulation by the given number of ticks. Each tick runs
// scripted hooks first, then steps every process in registration order.
func (s *Simulator) Run(ticks int) {
	s.logger.Info().
		Int("processes", len(s.order)).
		Int("ticks", ticks).
		Int64("seed", s.cfg.Simulation.Seed).
		Msg("Simulation starting")

	for i := 0; i < ticks; i++ {
		for _, fn := range s.hooks[s.tick] {
			fn(s)
		}
		for _, id := range s.order {
			s.processes[id].Step()
		}
		metrics.TicksTotal.Inc()
		s.tick++
	}

	s.logger.Info().
		Int("deliveries", s.deliveredTotal).
		Msg("Simulation finished")
}

// DeliveredTotal returns the number of first-time deliveries observed so far.
func (s *Simulator) DeliveredTotal() int {
	return s.deliveredTotal
}

// Stats snapshots buffer occupancy of every process for metrics collection.
func (s *Simulator) Stats() []metrics.ProcessStats {
	stats := make([]metrics.ProcessStats, 0, len(s.order))
	for _, id := range s.order {
		stats = append(stats, s.processes[id].Stats())
	}
	return stats
}
