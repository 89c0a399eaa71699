package lifecycle

import (
	"context"
	"errors"
	"testing"
)

// fakeComponent records start/stop calls for ordering assertions.
type fakeComponent struct {
	name     string
	startErr error
	log      *[]string
}

func (f *fakeComponent) Start(ctx context.Context) error {
	*f.log = append(*f.log, "start:"+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return nil
}

func (f *fakeComponent) Name() string { return f.name }

func TestManager_StartStopOrdering(t *testing.T) {
	var log []string
	store := &fakeComponent{name: "store", log: &log}
	runtime := &fakeComponent{name: "runtime", log: &log}
	api := &fakeComponent{name: "api", log: &log}

	m := NewManager()
	if err := m.Register(store); err != nil {
		t.Fatalf("register store: %v", err)
	}
	if err := m.Register(runtime, store); err != nil {
		t.Fatalf("register runtime: %v", err)
	}
	if err := m.Register(api, runtime); err != nil {
		t.Fatalf("register api: %v", err)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:store", "start:runtime", "start:api", "stop:api", "stop:runtime", "stop:store"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestManager_StartFailureRollsBack(t *testing.T) {
	var log []string
	store := &fakeComponent{name: "store", log: &log}
	api := &fakeComponent{name: "api", log: &log, startErr: errors.New("bind failed")}

	m := NewManager()
	if err := m.Register(store); err != nil {
		t.Fatalf("register store: %v", err)
	}
	if err := m.Register(api, store); err != nil {
		t.Fatalf("register api: %v", err)
	}

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected start error, got nil")
	}

	// store must have been rolled back.
	found := false
	for _, entry := range log {
		if entry == "stop:store" {
			found = true
		}
	}
	if !found {
		t.Errorf("store was not stopped during rollback: %v", log)
	}
	if m.IsRunning(store) {
		t.Error("store still marked running after rollback")
	}
}

func TestManager_RegisterValidation(t *testing.T) {
	var log []string
	a := &fakeComponent{name: "a", log: &log}
	b := &fakeComponent{name: "b", log: &log}

	m := NewManager()
	if err := m.Register(nil); err == nil {
		t.Error("expected error registering nil component")
	}
	if err := m.Register(a); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := m.Register(a); err == nil {
		t.Error("expected error on duplicate registration")
	}
	if err := m.Register(b, &fakeComponent{name: "ghost", log: &log}); err == nil {
		t.Error("expected error for unregistered dependency")
	}
}
