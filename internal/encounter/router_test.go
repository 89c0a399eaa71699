package encounter

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drcloud/assistant/internal/store"
)

// docCapability is a test documentation capability that persists one
// record per invocation, like the real one.
type docCapability struct {
	sink    store.DocumentStore
	invoked atomic.Int64
	lastIn  atomic.Value
}

func (d *docCapability) Name() string { return DocumentationCapability }

func (d *docCapability) Invoke(ctx context.Context, in *TurnInput) (*Result, error) {
	d.invoked.Add(1)
	d.lastIn.Store(in.Message)
	_, err := d.sink.Put(ctx, store.Record{
		AgentName:      "clinical_documentation_agent",
		PatientSummary: in.Message,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Output: "Visit note recorded."}, nil
}

func newTestRouter(regs []Registration, doc Capability) *Router {
	d := NewDispatcher(regs, time.Second, &countingNotifier{})
	return NewRouter(NewStore(), d, doc)
}

func TestProcessTurn_DocumentationRunsWhenEverythingFails(t *testing.T) {
	failing := func(context.Context, *TurnInput) (*Result, error) {
		return nil, errors.New("model unavailable")
	}
	regs := []Registration{
		{Capability: &fakeCapability{name: "symptom_analysis", fn: failing}},
		{Capability: &fakeCapability{name: "medication_check", fn: failing}},
	}
	sink := store.NewMemoryStore()
	doc := &docCapability{sink: sink}
	router := newTestRouter(regs, doc)

	out, err := router.ProcessTurn(context.Background(), &TurnInput{
		UserID:    "user_1",
		SessionID: "session_1",
		Message:   "I feel unwell",
		Done:      true,
	})
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}

	if got := doc.invoked.Load(); got != 1 {
		t.Errorf("expected documentation invoked exactly once, got %d", got)
	}
	records, _ := sink.List(context.Background())
	if len(records) != 1 {
		t.Errorf("expected one persisted record, got %d", len(records))
	}
	if out.State != StateClosed {
		t.Errorf("expected closed encounter, got %s", out.State)
	}

	enc, _ := router.Store().Get("user_1", "session_1")
	if !enc.Documented() {
		t.Error("encounter not marked documented")
	}
	for _, name := range []string{"symptom_analysis", "medication_check"} {
		if out.Audit[name].Status != StatusFailed {
			t.Errorf("expected %s failed in audit metadata, got %+v", name, out.Audit[name])
		}
	}
	if out.Audit[DocumentationCapability].Status != StatusSuccess {
		t.Errorf("documentation missing from audit metadata: %+v", out.Audit[DocumentationCapability])
	}
}

func TestProcessTurn_RedactsBeforeDocumentation(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "symptom_analysis", fn: func(_ context.Context, in *TurnInput) (*Result, error) {
			return &Result{Output: "Headache reported, reach me at 555-123-4567"}, nil
		}}},
	}
	sink := store.NewMemoryStore()
	doc := &docCapability{sink: sink}
	router := newTestRouter(regs, doc)

	_, err := router.ProcessTurn(context.Background(), &TurnInput{
		UserID:    "user_1",
		SessionID: "session_1",
		Message:   "My email is jane.doe@example.com and I have a headache",
		Done:      true,
	})
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}

	docInput, _ := doc.lastIn.Load().(string)
	if strings.Contains(docInput, "jane.doe@example.com") {
		t.Errorf("raw email reached documentation: %q", docInput)
	}
	if !strings.Contains(docInput, "[REDACTED_EMAIL]") {
		t.Errorf("expected email placeholder in documentation input: %q", docInput)
	}
	if strings.Contains(docInput, "555-123-4567") {
		t.Errorf("raw phone number reached documentation: %q", docInput)
	}
}

func TestProcessTurn_RedocumentationAppends(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "symptom_analysis", fn: func(context.Context, *TurnInput) (*Result, error) {
			return &Result{Output: "mild headache"}, nil
		}}},
	}
	sink := store.NewMemoryStore()
	doc := &docCapability{sink: sink}
	router := newTestRouter(regs, doc)

	in := &TurnInput{UserID: "user_1", SessionID: "session_1", Message: "headache", Done: true}
	if _, err := router.ProcessTurn(context.Background(), in); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := router.ProcessTurn(context.Background(), in); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	records, _ := sink.List(context.Background())
	if len(records) != 2 {
		t.Errorf("re-documentation must append, expected 2 records got %d", len(records))
	}
}

func TestProcessTurn_MidEncounterTurnStaysOpen(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "symptom_analysis", fn: func(context.Context, *TurnInput) (*Result, error) {
			return &Result{Output: "sounds like a tension headache"}, nil
		}}},
	}
	sink := store.NewMemoryStore()
	doc := &docCapability{sink: sink}
	router := newTestRouter(regs, doc)

	out, err := router.ProcessTurn(context.Background(), &TurnInput{
		UserID:    "user_1",
		SessionID: "session_1",
		Message:   "I have a headache",
	})
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}

	if out.State == StateClosed {
		t.Error("encounter closed without a done signal")
	}
	if doc.invoked.Load() != 0 {
		t.Error("documentation ran before the done signal")
	}
	if out.Response != "sounds like a tension headache" {
		t.Errorf("unexpected response %q", out.Response)
	}
	if out.PatientSummary != "" || out.ClinicianSummary != nil {
		t.Error("closing summaries produced on a mid-encounter turn")
	}
}

func TestProcessTurn_ClosingSummaries(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "symptom_analysis", fn: func(context.Context, *TurnInput) (*Result, error) {
			return &Result{Output: "Your symptoms look mild.", Emergency: false}, nil
		}}},
		{Capability: &fakeCapability{name: "medication_check", fn: func(context.Context, *TurnInput) (*Result, error) {
			return nil, errors.New("service down")
		}}},
	}
	sink := store.NewMemoryStore()
	router := newTestRouter(regs, &docCapability{sink: sink})

	out, err := router.ProcessTurn(context.Background(), &TurnInput{
		UserID:    "user_1",
		SessionID: "session_1",
		Message:   "wrapping up",
		Done:      true,
	})
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}

	if !strings.Contains(out.PatientSummary, "Your symptoms look mild.") {
		t.Errorf("patient summary missing capability output: %q", out.PatientSummary)
	}
	if strings.Contains(out.PatientSummary, "{") {
		t.Errorf("patient summary must be plain prose: %q", out.PatientSummary)
	}

	cs := out.ClinicianSummary
	if cs == nil {
		t.Fatal("missing clinician summary")
	}
	if cs.Capabilities["symptom_analysis"].Status != StatusSuccess {
		t.Errorf("clinician summary missing success entry: %+v", cs.Capabilities)
	}
	if cs.Capabilities["medication_check"].Status != StatusFailed {
		t.Errorf("clinician summary missing failure entry: %+v", cs.Capabilities)
	}
	if !cs.Documented {
		t.Error("clinician summary must report documentation ran")
	}
	if cs.ClosedAt.IsZero() {
		t.Error("clinician summary missing close time")
	}
}
