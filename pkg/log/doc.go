/*
Package log provides structured logging for lpbcast using zerolog.

The log package wraps the zerolog library to provide structured logging
(console output by default, JSON when requested) with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

# Architecture

A single global logger is initialized once via log.Init() and specialized
through child loggers:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │            Global Logger                   │           │
	│  │  - Zerolog instance                        │           │
	│  │  - Initialized via log.Init()              │           │
	│  │  - Thread-safe for concurrent use          │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │         Component Loggers                  │           │
	│  │  - WithComponent("simulator")              │           │
	│  │  - WithProcessID(42)                       │           │
	│  └────────────────────────────────────────────┘           │
	│                                                           │
	└───────────────────────────────────────────────────────────┘

# Usage

Initializing at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false, // console output for humans
	})

Component-scoped logging:

	logger := log.WithComponent("gossip")
	logger.Debug().Int("fanout", 3).Msg("Gossip round dispatched")

Per-process logging inside the protocol core:

	logger := log.WithProcessID(7)
	logger.Info().Str("event_id", id.String()).Msg("Event delivered")

# See Also

  - pkg/lpbcast for the protocol core emitting per-process logs
  - pkg/sim for the simulation host emitting run-level logs
*/
package log
