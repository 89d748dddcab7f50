package trace

import (
	"time"

	"github.com/lucazanella/lpbcast/pkg/config"
)

// Run is the persisted record of one simulation run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Seed       int64
	Processes  int
	Ticks      int
	Deliveries int
	Config     *config.Config
}

// Delivery is one first-time delivery observed during a run.
type Delivery struct {
	RunID     string
	Tick      int
	ProcessID int
	EventID   string
	Origin    int
	Age       int
}

// Store defines the interface for trace persistence.
// BoltStore implements it on top of BoltDB.
type Store interface {
	// Runs
	CreateRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns() ([]*Run, error)
	UpdateRun(run *Run) error

	// Deliveries
	AppendDelivery(d *Delivery) error
	ListDeliveries(runID string) ([]*Delivery, error)

	// Utility
	Close() error
}
