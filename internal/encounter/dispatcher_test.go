package encounter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeCapability struct {
	name string
	fn   func(ctx context.Context, in *TurnInput) (*Result, error)
}

func (f *fakeCapability) Name() string { return f.name }

func (f *fakeCapability) Invoke(ctx context.Context, in *TurnInput) (*Result, error) {
	return f.fn(ctx, in)
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) Notify(_ context.Context, _, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	return nil
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func testInput() *TurnInput {
	return &TurnInput{UserID: "user_1", SessionID: "session_1", Message: "hello"}
}

func TestDispatch_IndependentFailure(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "medication_check", fn: func(context.Context, *TurnInput) (*Result, error) {
			return nil, errors.New("interaction database unreachable")
		}}},
		{Capability: &fakeCapability{name: "lifestyle_advice", fn: func(context.Context, *TurnInput) (*Result, error) {
			return &Result{Output: "walk more"}, nil
		}}},
	}
	d := NewDispatcher(regs, time.Second, &countingNotifier{})
	enc := newEncounter("user_1", "session_1")

	results := d.Dispatch(context.Background(), enc, testInput())

	if results["medication_check"].Status != StatusFailed {
		t.Errorf("expected medication_check failed, got %+v", results["medication_check"])
	}
	if results["lifestyle_advice"].Status != StatusSuccess {
		t.Errorf("failure of one capability blocked a sibling: %+v", results["lifestyle_advice"])
	}
	if results["lifestyle_advice"].Output != "walk more" {
		t.Errorf("unexpected output %q", results["lifestyle_advice"].Output)
	}
}

func TestDispatch_PanicIsRecovered(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "symptom_analysis", fn: func(context.Context, *TurnInput) (*Result, error) {
			panic("bad prompt template")
		}}},
		{Capability: &fakeCapability{name: "lifestyle_advice", fn: func(context.Context, *TurnInput) (*Result, error) {
			return &Result{Output: "sleep well"}, nil
		}}},
	}
	d := NewDispatcher(regs, time.Second, &countingNotifier{})
	enc := newEncounter("user_1", "session_1")

	results := d.Dispatch(context.Background(), enc, testInput())

	if results["symptom_analysis"].Status != StatusFailed {
		t.Errorf("expected failed status after panic, got %+v", results["symptom_analysis"])
	}
	if results["lifestyle_advice"].Status != StatusSuccess {
		t.Errorf("panic in one capability affected a sibling: %+v", results["lifestyle_advice"])
	}
}

func TestDispatch_TimeoutDoesNotBlockSiblings(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "slow", fn: func(context.Context, *TurnInput) (*Result, error) {
			// Ignores ctx on purpose; the dispatcher guard must fire.
			time.Sleep(2 * time.Second)
			return &Result{Output: "too late"}, nil
		}}},
		{Capability: &fakeCapability{name: "fast", fn: func(context.Context, *TurnInput) (*Result, error) {
			return &Result{Output: "done"}, nil
		}}},
	}
	d := NewDispatcher(regs, 50*time.Millisecond, &countingNotifier{})
	enc := newEncounter("user_1", "session_1")

	start := time.Now()
	results := d.Dispatch(context.Background(), enc, testInput())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("dispatch blocked on the slow capability: %v", elapsed)
	}

	if results["slow"].Status != StatusFailed {
		t.Errorf("expected slow capability to time out, got %+v", results["slow"])
	}
	if results["fast"].Status != StatusSuccess {
		t.Errorf("timeout of one capability affected a sibling: %+v", results["fast"])
	}
}

func TestDispatch_DependencySequencing(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}

	var seenPrior string
	regs := []Registration{
		{Capability: &fakeCapability{name: "lab_extraction", fn: func(context.Context, *TurnInput) (*Result, error) {
			record("lab_extraction")
			return &Result{Output: "glucose 240 mg/dL"}, nil
		}}},
		{
			Capability: &fakeCapability{name: "lab_interpretation", fn: func(_ context.Context, in *TurnInput) (*Result, error) {
				record("lab_interpretation")
				seenPrior = in.Prior["lab_extraction"]
				return &Result{Output: "glucose is elevated"}, nil
			}},
			DependsOn: []string{"lab_extraction"},
		},
	}
	d := NewDispatcher(regs, time.Second, &countingNotifier{})
	enc := newEncounter("user_1", "session_1")

	results := d.Dispatch(context.Background(), enc, testInput())

	if len(order) != 2 || order[0] != "lab_extraction" || order[1] != "lab_interpretation" {
		t.Errorf("expected extraction before interpretation, got %v", order)
	}
	if seenPrior != "glucose 240 mg/dL" {
		t.Errorf("dependent capability did not receive prerequisite output, got %q", seenPrior)
	}
	if results["lab_interpretation"].Status != StatusSuccess {
		t.Errorf("unexpected result %+v", results["lab_interpretation"])
	}
}

func TestDispatch_DependentSkippedWhenDependencyFails(t *testing.T) {
	regs := []Registration{
		{Capability: &fakeCapability{name: "lab_extraction", fn: func(context.Context, *TurnInput) (*Result, error) {
			return nil, errors.New("unreadable report")
		}}},
		{
			Capability: &fakeCapability{name: "lab_interpretation", fn: func(context.Context, *TurnInput) (*Result, error) {
				t.Error("dependent capability must not run when its dependency failed")
				return nil, nil
			}},
			DependsOn: []string{"lab_extraction"},
		},
	}
	d := NewDispatcher(regs, time.Second, &countingNotifier{})
	enc := newEncounter("user_1", "session_1")

	results := d.Dispatch(context.Background(), enc, testInput())

	if results["lab_interpretation"].Status != StatusSkipped {
		t.Errorf("expected skipped, got %+v", results["lab_interpretation"])
	}
}

func TestDispatch_UnresolvedDependencyFails(t *testing.T) {
	regs := []Registration{
		{
			Capability: &fakeCapability{name: "lab_interpretation", fn: func(context.Context, *TurnInput) (*Result, error) {
				return &Result{Output: "never runs"}, nil
			}},
			DependsOn: []string{"missing_capability"},
		},
	}
	d := NewDispatcher(regs, time.Second, &countingNotifier{})
	enc := newEncounter("user_1", "session_1")

	results := d.Dispatch(context.Background(), enc, testInput())

	if results["lab_interpretation"].Status != StatusFailed {
		t.Errorf("expected failed for unresolved dependency, got %+v", results["lab_interpretation"])
	}
}

func TestDispatch_NotApplicableIsSkipped(t *testing.T) {
	regs := []Registration{
		{
			Capability: &fakeCapability{name: "lab_interpretation", fn: func(context.Context, *TurnInput) (*Result, error) {
				t.Error("capability must not run when not applicable")
				return nil, nil
			}},
			Applies: func(in *TurnInput) bool { return in.LabReport != "" },
		},
	}
	d := NewDispatcher(regs, time.Second, &countingNotifier{})
	enc := newEncounter("user_1", "session_1")

	results := d.Dispatch(context.Background(), enc, testInput())

	if results["lab_interpretation"].Status != StatusSkipped {
		t.Errorf("expected skipped, got %+v", results["lab_interpretation"])
	}
}

func TestDispatch_EmergencyNotifiedOncePerEncounter(t *testing.T) {
	notifier := &countingNotifier{}
	regs := []Registration{
		{Capability: &fakeCapability{name: "symptom_analysis", fn: func(context.Context, *TurnInput) (*Result, error) {
			return &Result{Output: "chest pain red flag", Emergency: true, EmergencyReason: "possible cardiac event"}, nil
		}}},
	}
	d := NewDispatcher(regs, time.Second, notifier)
	enc := newEncounter("user_1", "session_1")

	d.Dispatch(context.Background(), enc, testInput())
	d.Dispatch(context.Background(), enc, testInput())

	if !enc.EmergencyFlag() {
		t.Error("emergency flag not set")
	}
	if notifier.Count() != 1 {
		t.Errorf("expected exactly one notification per encounter, got %d", notifier.Count())
	}
}
