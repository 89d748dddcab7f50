/*
Package sim provides the discrete-event simulation host for lpbcast.

The simulator owns everything the protocol core treats as environment: the
tick clock, the process registry used for peer resolution, the seeded random
source, and the application delivery upcall. It steps every registered
process once per tick in registration order, runs scripted actions at their
scheduled ticks, and publishes observable occurrences to the notification
broker.

Every random draw comes from a source seeded by the configuration, so the
same configuration and seed repeat the same draws. Event identifiers are
fresh UUIDs outside that source; where the core orders events by identifier,
two runs with the same seed can still diverge.

# Usage

	broker := events.NewBroker()
	broker.Subscribe(func(n *events.Notification) {
		fmt.Printf("tick %d: %s\n", n.Tick, n.Type)
	})

	s, err := sim.New(cfg, broker)
	if err != nil {
		return err
	}
	if err := s.Mesh(cfg.Simulation.Processes); err != nil {
		return err
	}

	s.At(0, func(s *sim.Simulator) {
		s.Broadcast(1)
	})
	s.At(50, func(s *sim.Simulator) {
		s.Unsubscribe(3)
	})

	s.Run(cfg.Simulation.Ticks)

# See Also

  - pkg/lpbcast for the protocol the simulator drives
  - pkg/events for the notification broker
  - pkg/trace for persisting what a run observed
*/
package sim
