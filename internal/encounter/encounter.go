// Package encounter owns the per-conversation state machine and the
// turn routing contract: which capabilities run for a turn, how their
// results are aggregated, when the emergency notifier fires, and the
// rule that an encounter only closes after clinical documentation ran.
package encounter

import (
	"sync"
	"time"
)

// State is the primary lifecycle state of an encounter.
type State string

const (
	StateIntake      State = "intake"
	StateRouting     State = "routing"
	StateAggregating State = "aggregating"
	StateDocumenting State = "documenting"
	StateClosed      State = "closed"
)

// Status classifies the outcome of one capability invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// CapabilityResult is the audit record of one capability invocation.
type CapabilityResult struct {
	Status Status `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Encounter tracks one end-to-end patient interaction for a
// (userID, sessionID) pair. All mutation goes through methods so
// concurrent capability goroutines stay safe.
type Encounter struct {
	mu sync.Mutex

	userID    string
	sessionID string

	state      State
	results    map[string]CapabilityResult
	emergency  bool
	notified   bool
	documented bool
	turns      int

	createdAt time.Time
	closedAt  time.Time
}

func newEncounter(userID, sessionID string) *Encounter {
	return &Encounter{
		userID:    userID,
		sessionID: sessionID,
		state:     StateIntake,
		results:   make(map[string]CapabilityResult),
		createdAt: time.Now().UTC(),
	}
}

// UserID returns the owning user ID.
func (e *Encounter) UserID() string { return e.userID }

// SessionID returns the owning session ID.
func (e *Encounter) SessionID() string { return e.sessionID }

func (e *Encounter) beginTurn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns++
	e.state = StateRouting
}

func (e *Encounter) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// CurrentState returns the primary state.
func (e *Encounter) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Encounter) recordResult(name string, res CapabilityResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[name] = res
}

// flagEmergency sets the emergency flag and reports whether the
// out-of-band notification still needs to fire. It returns true at most
// once per encounter.
func (e *Encounter) flagEmergency() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emergency = true
	if e.notified {
		return false
	}
	e.notified = true
	return true
}

// EmergencyFlag reports whether any capability signalled an emergency.
func (e *Encounter) EmergencyFlag() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emergency
}

func (e *Encounter) markDocumented() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.documented = true
}

// Documented reports whether the documentation capability ran.
func (e *Encounter) Documented() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.documented
}

// close transitions to Closed. Documentation must have run first; the
// router enforces that ordering.
func (e *Encounter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateClosed
	if e.closedAt.IsZero() {
		e.closedAt = time.Now().UTC()
	}
}

// ResultsSnapshot returns a copy of the per-capability audit records.
func (e *Encounter) ResultsSnapshot() map[string]CapabilityResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]CapabilityResult, len(e.results))
	for name, res := range e.results {
		out[name] = res
	}
	return out
}

// Snapshot is a point-in-time copy of an encounter for API responses.
type Snapshot struct {
	UserID     string                      `json:"user_id"`
	SessionID  string                      `json:"session_id"`
	State      State                       `json:"state"`
	Emergency  bool                        `json:"emergency"`
	Documented bool                        `json:"documented"`
	Turns      int                         `json:"turns"`
	Results    map[string]CapabilityResult `json:"capability_results"`
	CreatedAt  time.Time                   `json:"created_at"`
	ClosedAt   *time.Time                  `json:"closed_at,omitempty"`
}

// Snapshot returns a copy of the encounter's observable state.
func (e *Encounter) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make(map[string]CapabilityResult, len(e.results))
	for name, res := range e.results {
		results[name] = res
	}

	snap := Snapshot{
		UserID:     e.userID,
		SessionID:  e.sessionID,
		State:      e.state,
		Emergency:  e.emergency,
		Documented: e.documented,
		Turns:      e.turns,
		Results:    results,
		CreatedAt:  e.createdAt,
	}
	if !e.closedAt.IsZero() {
		closed := e.closedAt
		snap.ClosedAt = &closed
	}
	return snap
}
