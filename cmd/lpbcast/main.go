package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lucazanella/lpbcast/pkg/config"
	"github.com/lucazanella/lpbcast/pkg/events"
	"github.com/lucazanella/lpbcast/pkg/log"
	"github.com/lucazanella/lpbcast/pkg/lpbcast"
	"github.com/lucazanella/lpbcast/pkg/metrics"
	"github.com/lucazanella/lpbcast/pkg/sim"
	"github.com/lucazanella/lpbcast/pkg/trace"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lpbcast",
	Short: "lpbcast - lightweight probabilistic broadcast simulator",
	Long: `lpbcast simulates gossip-based event dissemination over a set of
processes, each holding a bounded partial view of the membership.

Events, subscriptions, and unsubscriptions spread epidemically; missed
events are recovered through staged retransmission. The simulator is
deterministic for a given configuration and seed.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"lpbcast version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	// Initialize logging before command execution
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(runsCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a broadcast simulation",
	Long: `Run a gossip dissemination simulation over a full mesh of processes.

Examples:
  # 10 processes, 200 ticks, a broadcast from process 1 at tick 0
  lpbcast simulate --broadcast 0:1

  # Simulate membership churn with a persisted trace
  lpbcast simulate -f sim.yaml --unsubscribe 50:3 --trace ./data`,
	RunE: runSimulate,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded simulation runs",
	RunE:  runRuns,
}

func init() {
	simulateCmd.Flags().StringP("config", "f", "", "YAML configuration file")
	simulateCmd.Flags().Int("processes", 0, "Number of processes (overrides config)")
	simulateCmd.Flags().Int("ticks", 0, "Number of ticks to run (overrides config)")
	simulateCmd.Flags().Int64("seed", 0, "Random seed (overrides config)")
	simulateCmd.Flags().StringArray("broadcast", nil, "Broadcast an event, formatted tick:process (repeatable)")
	simulateCmd.Flags().StringArray("unsubscribe", nil, "Unsubscribe a process, formatted tick:process (repeatable)")
	simulateCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	simulateCmd.Flags().String("trace", "", "Directory for the BoltDB trace store")

	runsCmd.Flags().String("trace", "./data", "Directory of the BoltDB trace store")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	broadcasts, err := parseSchedule(cmd, "broadcast")
	if err != nil {
		return err
	}
	unsubscribes, err := parseSchedule(cmd, "unsubscribe")
	if err != nil {
		return err
	}

	broker := events.NewBroker()

	simulator, err := sim.New(cfg, broker)
	if err != nil {
		return err
	}
	if err := simulator.Mesh(cfg.Simulation.Processes); err != nil {
		return err
	}

	for _, b := range broadcasts {
		target := b.process
		simulator.At(b.tick, func(s *sim.Simulator) {
			if _, err := s.Broadcast(target); err != nil {
				log.Errorf("Scheduled broadcast failed", err)
			}
		})
	}
	for _, u := range unsubscribes {
		target := u.process
		simulator.At(u.tick, func(s *sim.Simulator) {
			if err := s.Unsubscribe(target); err != nil {
				log.Errorf("Scheduled unsubscribe failed", err)
			}
		})
	}

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		collector := metrics.NewCollector(simulator)
		collector.Start()
		defer collector.Stop()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("simulator", true, "running")
		metrics.RegisterComponent("broker", true, "running")

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Errorf("Metrics listener failed", err)
			}
		}()
		fmt.Printf("Serving metrics on %s/metrics\n", addr)
	}

	runID := uuid.New().String()
	run := &trace.Run{
		ID:        runID,
		StartedAt: time.Now(),
		Seed:      cfg.Simulation.Seed,
		Processes: cfg.Simulation.Processes,
		Ticks:     cfg.Simulation.Ticks,
		Config:    cfg,
	}

	var store trace.Store
	if dir, _ := cmd.Flags().GetString("trace"); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		store, err = trace.NewBoltStore(dir)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.CreateRun(run); err != nil {
			return err
		}
		recorder := trace.NewRecorder(store, broker, runID)
		recorder.Start()
		defer recorder.Stop()

		metrics.RegisterComponent("trace", true, "recording")
	}

	fmt.Println("Starting simulation...")
	fmt.Printf("  Run ID: %s\n", runID)
	fmt.Printf("  Processes: %d\n", cfg.Simulation.Processes)
	fmt.Printf("  Ticks: %d\n", cfg.Simulation.Ticks)
	fmt.Printf("  Seed: %d\n", cfg.Simulation.Seed)

	simulator.Run(cfg.Simulation.Ticks)

	fmt.Printf("Simulation complete: %d deliveries\n", simulator.DeliveredTotal())

	if store != nil {
		run.FinishedAt = time.Now()
		run.Deliveries = simulator.DeliveredTotal()
		if err := store.UpdateRun(run); err != nil {
			return err
		}
	}
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("trace")

	store, err := trace.NewBoltStore(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  processes=%d ticks=%d seed=%d deliveries=%d  %s\n",
			r.ID, r.Processes, r.Ticks, r.Seed, r.Deliveries,
			r.StartedAt.Format(time.RFC3339))
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if n, _ := cmd.Flags().GetInt("processes"); n > 0 {
		cfg.Simulation.Processes = n
	}
	if n, _ := cmd.Flags().GetInt("ticks"); n > 0 {
		cfg.Simulation.Ticks = n
	}
	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		cfg.Simulation.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// scheduledAction is a tick:process pair parsed from a repeatable flag.
type scheduledAction struct {
	tick    int
	process lpbcast.ProcessID
}

func parseSchedule(cmd *cobra.Command, name string) ([]scheduledAction, error) {
	raw, _ := cmd.Flags().GetStringArray(name)

	actions := make([]scheduledAction, 0, len(raw))
	for _, entry := range raw {
		var tick, process int
		if _, err := fmt.Sscanf(entry, "%d:%d", &tick, &process); err != nil {
			return nil, fmt.Errorf("invalid --%s entry %q, want tick:process", name, entry)
		}
		if tick < 0 || process < 1 {
			return nil, fmt.Errorf("invalid --%s entry %q, want tick >= 0 and process >= 1", name, entry)
		}
		actions = append(actions, scheduledAction{tick: tick, process: lpbcast.ProcessID(process)})
	}
	return actions, nil
}
