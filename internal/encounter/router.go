package encounter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drcloud/assistant/internal/logging"
	"github.com/drcloud/assistant/internal/metrics"
	"github.com/drcloud/assistant/internal/phi"
)

// DocumentationCapability is the reserved name of the clinical
// documentation capability.
const DocumentationCapability = "clinical_documentation"

// ClinicianSummary is the structured clinician-facing output produced
// when an encounter closes.
type ClinicianSummary struct {
	Capabilities map[string]CapabilityResult `json:"capabilities"`
	Emergency    bool                        `json:"emergency"`
	Documented   bool                        `json:"documented"`
	Turns        int                         `json:"turns"`
	OpenedAt     time.Time                   `json:"opened_at"`
	ClosedAt     time.Time                   `json:"closed_at"`
}

// TurnOutput is the result of processing one conversation turn.
type TurnOutput struct {
	// Response is the patient-facing text for this turn.
	Response string

	// State is the encounter state after the turn.
	State State

	// Emergency reports whether the encounter has an active red flag.
	Emergency bool

	// Audit maps capability name to its recorded outcome.
	Audit map[string]CapabilityResult

	// PatientSummary and ClinicianSummary are set only when the turn
	// closed the encounter.
	PatientSummary   string
	ClinicianSummary *ClinicianSummary
}

// Router drives the encounter state machine for each turn: dispatch,
// aggregation, and on the done signal documentation and closure.
type Router struct {
	store      *Store
	dispatcher *Dispatcher
	doc        Capability
	logger     *logging.Logger
}

// NewRouter creates a router. doc is the documentation capability; it
// is invoked outside normal dispatch because it must run even when
// every other capability failed.
func NewRouter(store *Store, dispatcher *Dispatcher, doc Capability) *Router {
	return &Router{
		store:      store,
		dispatcher: dispatcher,
		doc:        doc,
		logger:     logging.GetLogger("encounter.router"),
	}
}

// Store returns the underlying encounter store.
func (r *Router) Store() *Store { return r.store }

// ProcessTurn runs one conversation turn. Capability failures never
// abort the turn; they are recorded in the audit metadata. When
// in.Done is set the documentation capability runs unconditionally and
// the encounter closes. Re-processing a done turn on a closed
// encounter is safe: documentation appends a new record each time.
func (r *Router) ProcessTurn(ctx context.Context, in *TurnInput) (*TurnOutput, error) {
	start := time.Now()
	defer func() { metrics.TurnDuration.Observe(time.Since(start).Seconds()) }()

	enc, created := r.store.GetOrCreate(in.UserID, in.SessionID)
	if created {
		r.logger.InfoWithFields("encounter opened",
			logging.Field("user_id", in.UserID),
			logging.Field("session_id", in.SessionID),
		)
	}

	enc.beginTurn()
	results := r.dispatcher.Dispatch(ctx, enc, in)
	enc.setState(StateAggregating)

	out := &TurnOutput{
		Response: r.aggregateResponse(results),
	}

	if in.Done {
		enc.setState(StateDocumenting)
		docResult := r.dispatcher.InvokeOne(ctx, enc, r.doc, r.documentationInput(in, results))
		enc.markDocumented()
		if docResult.Status == StatusSuccess {
			metrics.DocumentationRecords.Inc()
		}
		enc.close()

		snap := enc.Snapshot()
		out.PatientSummary = r.patientSummary(results, snap.Emergency)
		out.ClinicianSummary = &ClinicianSummary{
			Capabilities: snap.Results,
			Emergency:    snap.Emergency,
			Documented:   snap.Documented,
			Turns:        snap.Turns,
			OpenedAt:     snap.CreatedAt,
		}
		if snap.ClosedAt != nil {
			out.ClinicianSummary.ClosedAt = *snap.ClosedAt
		}
		if out.Response == "" {
			out.Response = out.PatientSummary
		}
	}

	out.Audit = enc.ResultsSnapshot()
	out.State = enc.CurrentState()
	out.Emergency = enc.EmergencyFlag()
	return out, nil
}

// aggregateResponse joins successful capability outputs in
// registration order so responses are deterministic.
func (r *Router) aggregateResponse(results map[string]CapabilityResult) string {
	var parts []string
	for _, name := range r.dispatcher.Names() {
		res, ok := results[name]
		if !ok || res.Status != StatusSuccess || res.Output == "" {
			continue
		}
		parts = append(parts, res.Output)
	}
	return strings.Join(parts, "\n\n")
}

// documentationInput assembles the de-identified note context. Every
// PHI-bearing field passes through the redaction filter before it can
// reach the documentation capability or the persistence sink.
func (r *Router) documentationInput(in *TurnInput, results map[string]CapabilityResult) *TurnInput {
	var b strings.Builder
	if in.Message != "" {
		fmt.Fprintf(&b, "Patient statement: %s\n", phi.Redact(in.Message))
	}
	if in.SymptomText != "" {
		fmt.Fprintf(&b, "Reported symptoms: %s\n", phi.Redact(in.SymptomText))
	}
	for _, name := range r.dispatcher.Names() {
		res, ok := results[name]
		if !ok || res.Status != StatusSuccess || res.Output == "" {
			continue
		}
		fmt.Fprintf(&b, "%s findings: %s\n", name, phi.Redact(res.Output))
	}

	return &TurnInput{
		UserID:    in.UserID,
		SessionID: in.SessionID,
		Message:   b.String(),
		Done:      true,
	}
}

// patientSummary renders the layperson-facing closing summary. Plain
// prose only, no structured payloads.
func (r *Router) patientSummary(results map[string]CapabilityResult, emergency bool) string {
	var b strings.Builder
	b.WriteString("Here is a summary of today's visit.\n")
	if emergency {
		b.WriteString("Some of your results need urgent attention. Please seek immediate medical care or call your local emergency number.\n")
	}

	any := false
	for _, name := range r.dispatcher.Names() {
		res, ok := results[name]
		if !ok || res.Status != StatusSuccess || res.Output == "" {
			continue
		}
		any = true
		b.WriteString("\n")
		b.WriteString(res.Output)
		b.WriteString("\n")
	}
	if !any {
		b.WriteString("We were not able to complete the review of your information this time. A note of the visit has been recorded; please follow up with your care provider.\n")
	}
	return b.String()
}
