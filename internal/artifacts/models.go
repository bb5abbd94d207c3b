package artifacts

import "time"

// State is an artifact's storage lifecycle phase.
type State string

const (
	StateTemporary State = "temporary"
	StatePermanent State = "permanent"
)

// Artifact is the persisted metadata for one produced video.
type Artifact struct {
	ID          string
	State       State
	StoragePath string
	OwnerID     string
	CreatedAt   time.Time
	// ExpiresAt is nil once the artifact is permanent.
	ExpiresAt *time.Time
}

// Temporary reports whether the artifact is still awaiting a save decision.
func (a *Artifact) Temporary() bool {
	return a != nil && a.State == StateTemporary
}

// SweepResult summarizes one expiry sweep.
type SweepResult struct {
	Removed  int
	Orphans  int
	Failures []string
}
