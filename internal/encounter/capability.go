package encounter

import "context"

// TurnInput carries one conversation turn's inputs. Structured fields
// are each present-or-absent independently; capabilities decide what
// they can act on.
type TurnInput struct {
	UserID    string
	SessionID string

	// Message is the user's free-text input for this turn.
	Message string

	// SymptomText is an explicit symptom description, if provided
	// separately from the message.
	SymptomText string

	// LabReport is a raw lab result payload, if provided.
	LabReport string

	// Medications is the user's current medication list, if provided.
	Medications []string

	// Lifestyle holds self-reported lifestyle metrics, if provided.
	Lifestyle map[string]string

	// Done signals that the user ended the encounter and documentation
	// plus closure should run after this turn.
	Done bool

	// Prior holds the outputs of capabilities this invocation declared
	// a dependency on, keyed by capability name. Populated by the
	// dispatcher; empty for independent capabilities.
	Prior map[string]string
}

// withPrior returns a shallow copy carrying the given dependency
// outputs. The original input is never mutated once dispatch starts.
func (in *TurnInput) withPrior(prior map[string]string) *TurnInput {
	cp := *in
	cp.Prior = prior
	return &cp
}

// Result is what a capability produces on success.
type Result struct {
	// Output is the capability's textual finding.
	Output string

	// Emergency indicates the output contains a red-flag condition
	// requiring immediate attention.
	Emergency bool

	// EmergencyReason describes the red flag when Emergency is set.
	EmergencyReason string
}

// Capability is one independently invocable unit of domain logic. A
// capability must respect ctx cancellation; the dispatcher additionally
// guards each invocation with its own timeout.
type Capability interface {
	Name() string
	Invoke(ctx context.Context, in *TurnInput) (*Result, error)
}

// Registration binds a capability into the dispatcher.
type Registration struct {
	Capability Capability

	// DependsOn names capabilities whose output this one consumes.
	// Only true data dependencies belong here; independent
	// capabilities are dispatched concurrently.
	DependsOn []string

	// Applies reports whether the capability has anything to act on
	// for this turn. A nil Applies means always applicable.
	Applies func(in *TurnInput) bool
}
