/*
Package config defines the protocol constants and simulation settings for
lpbcast runs.

Configuration is loaded from a YAML file, merged over defaults, and validated
before any process is constructed. Validation fails fast: a purging bias K >= 1
would make frequency-based eviction loop forever, and zero-sized buffers would
make the protocol unable to hold any state, so both are rejected at load time.

# Usage

Loading from a file:

	cfg, err := config.Load("sim.yaml")
	if err != nil {
		return err
	}

A minimal sim.yaml:

	protocol:
	  fanout: 3
	  viewMax: 5
	  sync: true
	simulation:
	  processes: 10
	  ticks: 200
	  seed: 42

Fields absent from the file keep their defaults from config.Default().

# See Also

  - pkg/lpbcast for how each constant drives the protocol
  - cmd/lpbcast for the CLI flags that override simulation settings
*/
package config
