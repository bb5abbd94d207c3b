package jobs

import (
	"strings"
	"time"

	"signcast/internal/dictionary"
)

// State represents the lifecycle of a generation job.
type State string

const (
	StateReceived        State = "received"
	StateProcessing      State = "processing"
	StateGeneratingVideo State = "generating_video"
	StateCompleted       State = "completed"
	StateError           State = "error"
)

// CancelledDetail is the error detail recorded for explicitly cancelled jobs.
const CancelledDetail = "cancelled"

// SupersededDetail is the error detail recorded when a newer submission for
// the same subject takes over.
const SupersededDetail = "superseded by a newer generation request"

var allStates = []State{
	StateReceived,
	StateProcessing,
	StateGeneratingVideo,
	StateCompleted,
	StateError,
}

var liveStates = []State{StateReceived, StateProcessing, StateGeneratingVideo}

var validTransitions = map[State][]State{
	StateReceived:        {StateProcessing, StateError},
	StateProcessing:      {StateGeneratingVideo, StateError},
	StateGeneratingVideo: {StateCompleted, StateError},
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// LiveStates returns the non-terminal states.
func LiveStates() []State {
	cp := make([]State, len(liveStates))
	copy(cp, liveStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	for _, state := range allStates {
		if state == normalized {
			return state, true
		}
	}
	return "", false
}

// Terminal reports whether a state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// CanTransition reports whether from → to is a legal transition.
func CanTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job is the persisted generation state machine entity. It is mutated only
// through Store transition methods; every other component reads snapshots.
type Job struct {
	JobID            string
	SubjectRef       string
	AvatarModel      dictionary.AvatarModel
	InputText        string
	State            State
	Message          string
	ProgressPercent  int
	ResultArtifactID string
	ErrorDetail      string
	ManifestJSON     string
	TranslationsJSON string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Live reports whether the job is still in a non-terminal state.
func (j *Job) Live() bool {
	return j != nil && !j.State.Terminal()
}

// StatsSummary aggregates job counts per state.
type StatsSummary struct {
	Total     int
	Live      int
	Completed int
	Errored   int
}
