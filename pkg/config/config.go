package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Protocol holds the tunable constants of the broadcast protocol.
// All tick-valued fields are expressed in simulation ticks.
type Protocol struct {
	ViewMax     int `yaml:"viewMax"`
	SubsMax     int `yaml:"subsMax"`
	UnsubsMax   int `yaml:"unsubsMax"`
	EventsMax   int `yaml:"eventsMax"`
	EventIDsMax int `yaml:"eventIdsMax"`
	ArchivedMax int `yaml:"archivedMax"`

	// UnsubsValidity is how many ticks an unsubscription entry stays valid
	// before it is eligible for expiry-based purging.
	UnsubsValidity int `yaml:"unsubsValidity"`

	// LongAgo is the hop-age gap beyond which an event is considered beaten
	// by a fresher event from the same origin.
	LongAgo int `yaml:"longAgo"`

	// K biases frequency-based purging; must satisfy 0 <= K < 1.
	K float64 `yaml:"k"`

	// Fanout is the number of gossip targets per round.
	Fanout int `yaml:"fanout"`

	// KRecovery is how many ticks a missing event sits in the retrieve
	// buffer before a retransmission request is issued.
	KRecovery int `yaml:"kRecovery"`

	// RecoveryTimeout is how many ticks an outstanding retrieve request
	// waits before advancing to the next destination stage.
	RecoveryTimeout int `yaml:"recoveryTimeout"`

	// MessageMaxDelay is the upper bound on random message delay in ticks.
	// Ignored when Sync is true (all messages take exactly one tick).
	MessageMaxDelay int  `yaml:"messageMaxDelay"`
	Sync            bool `yaml:"sync"`

	AgeBasedMessagePurging          bool `yaml:"ageBasedMessagePurging"`
	FrequencyBasedMembershipPurging bool `yaml:"frequencyBasedMembershipPurging"`
}

// Simulation holds host-side settings for a simulation run.
type Simulation struct {
	Processes int   `yaml:"processes"`
	Ticks     int   `yaml:"ticks"`
	Seed      int64 `yaml:"seed"`
}

// Config is the top-level configuration for a simulation run.
type Config struct {
	Protocol   Protocol   `yaml:"protocol"`
	Simulation Simulation `yaml:"simulation"`
}

// Default returns a configuration with the standard protocol constants.
func Default() *Config {
	return &Config{
		Protocol: Protocol{
			ViewMax:                         30,
			SubsMax:                         30,
			UnsubsMax:                       30,
			EventsMax:                       30,
			EventIDsMax:                     30,
			ArchivedMax:                     60,
			UnsubsValidity:                  50,
			LongAgo:                         10,
			K:                               0.5,
			Fanout:                          3,
			KRecovery:                       20,
			RecoveryTimeout:                 20,
			MessageMaxDelay:                 5,
			Sync:                            true,
			AgeBasedMessagePurging:          true,
			FrequencyBasedMembershipPurging: true,
		},
		Simulation: Simulation{
			Processes: 10,
			Ticks:     200,
			Seed:      1,
		},
	}
}

// Load reads a YAML configuration file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the protocol cannot run with.
func (c *Config) Validate() error {
	if err := c.Protocol.Validate(); err != nil {
		return err
	}

	s := c.Simulation
	if s.Processes < 1 {
		return fmt.Errorf("invalid config: processes must be at least 1, got %d", s.Processes)
	}
	if s.Ticks < 1 {
		return fmt.Errorf("invalid config: ticks must be at least 1, got %d", s.Ticks)
	}
	return nil
}

// Validate checks the protocol constants for values the protocol cannot run
// with. A bias K >= 1 would make frequency-based eviction non-terminating.
func (p Protocol) Validate() error {
	caps := map[string]int{
		"viewMax":     p.ViewMax,
		"subsMax":     p.SubsMax,
		"unsubsMax":   p.UnsubsMax,
		"eventsMax":   p.EventsMax,
		"eventIdsMax": p.EventIDsMax,
		"archivedMax": p.ArchivedMax,
	}
	for name, v := range caps {
		if v < 1 {
			return fmt.Errorf("invalid config: %s must be at least 1, got %d", name, v)
		}
	}

	if p.K < 0 || p.K >= 1 {
		return fmt.Errorf("invalid config: k must satisfy 0 <= k < 1, got %g", p.K)
	}
	if p.Fanout < 1 {
		return fmt.Errorf("invalid config: fanout must be at least 1, got %d", p.Fanout)
	}
	if p.LongAgo < 1 {
		return fmt.Errorf("invalid config: longAgo must be at least 1, got %d", p.LongAgo)
	}
	if p.UnsubsValidity < 1 {
		return fmt.Errorf("invalid config: unsubsValidity must be at least 1, got %d", p.UnsubsValidity)
	}
	if p.KRecovery < 1 {
		return fmt.Errorf("invalid config: kRecovery must be at least 1, got %d", p.KRecovery)
	}
	if p.RecoveryTimeout < 1 {
		return fmt.Errorf("invalid config: recoveryTimeout must be at least 1, got %d", p.RecoveryTimeout)
	}
	if !p.Sync && p.MessageMaxDelay < 1 {
		return fmt.Errorf("invalid config: messageMaxDelay must be at least 1 when sync is disabled, got %d", p.MessageMaxDelay)
	}
	return nil
}
