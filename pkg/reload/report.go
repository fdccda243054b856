package reload

import (
	"time"

	"github.com/google/uuid"
)

// Operation names what a Report describes
type Operation string

const (
	OperationReloadWithReferences Operation = "reload_with_references"
	OperationReloadAll            Operation = "reload_all"
	OperationUnloadAll            Operation = "unload_all"
)

// Report is the outcome of one service operation
type Report struct {
	ID        string        `json:"id"`
	Operation Operation     `json:"operation"`
	Roots     []string      `json:"roots,omitempty"`
	Closure   []string      `json:"closure,omitempty"`
	Reloaded  []string      `json:"reloaded"`
	Unloaded  []string      `json:"unloaded,omitempty"`
	Skipped   []string      `json:"skipped,omitempty"`
	DryRun    bool          `json:"dry_run"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

func newReport(op Operation, dryRun bool) *Report {
	return &Report{
		ID:        uuid.New().String(),
		Operation: op,
		Reloaded:  make([]string, 0),
		DryRun:    dryRun,
		StartedAt: time.Now(),
	}
}

func (r *Report) finish() {
	r.Duration = time.Since(r.StartedAt)
}
