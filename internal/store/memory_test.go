package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_PutGeneratesIDAndTimestamp(t *testing.T) {
	s := NewMemoryStore()

	id, err := s.Put(context.Background(), Record{
		AgentName:      "clinical_documentation_agent",
		PatientSummary: "visit note",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if id == "" {
		t.Error("expected generated ID")
	}

	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be filled in")
	}
}

func TestMemoryStore_AppendOnly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Two documentation events for the same encounter must create two
	// records, not overwrite one.
	first, err := s.Put(ctx, Record{AgentName: "clinical_documentation_agent", PatientSummary: "first note"})
	if err != nil {
		t.Fatalf("put first: %v", err)
	}
	second, err := s.Put(ctx, Record{AgentName: "clinical_documentation_agent", PatientSummary: "second note"})
	if err != nil {
		t.Fatalf("put second: %v", err)
	}

	if first == second {
		t.Errorf("expected distinct record IDs, both were %s", first)
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].PatientSummary != "first note" || records[1].PatientSummary != "second note" {
		t.Errorf("records out of order: %v", records)
	}
}

func TestMemoryStore_ListIsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Put(ctx, Record{PatientSummary: "note"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	records, _ := s.List(ctx)
	records[0].PatientSummary = "mutated"

	fresh, _ := s.List(ctx)
	if fresh[0].PatientSummary != "note" {
		t.Error("List returned a shared slice, mutation leaked into the store")
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Put(ctx, Record{Timestamp: time.Now()}); err == nil {
		t.Error("expected error for cancelled context")
	}
	if _, err := s.List(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
