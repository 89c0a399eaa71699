package docagent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/drcloud/assistant/internal/store"
)

func TestDeidText_MasksPHI(t *testing.T) {
	res, err := deidText(nil, DeidArgs{
		Text: "Patient John Smith, reachable at john@x.com, reports chest pain.",
	})
	if err != nil {
		t.Fatalf("deid: %v", err)
	}

	if strings.Contains(res.Text, "john@x.com") {
		t.Errorf("email leaked: %q", res.Text)
	}
	if !strings.Contains(res.Text, "[REDACTED_NAME]") || !strings.Contains(res.Text, "[REDACTED_EMAIL]") {
		t.Errorf("missing placeholders: %q", res.Text)
	}
	if !strings.Contains(res.Text, "chest pain") {
		t.Errorf("clinical content lost: %q", res.Text)
	}
}

func TestStoreHandler_PersistsRedactedRecord(t *testing.T) {
	sink := store.NewMemoryStore()
	handler := newStoreHandler(sink)

	res, err := handler(nil, StoreArgs{
		PatientSummary: "Follow up with Mary Jones on 12/01/2025 regarding blood pressure.",
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if res.Status != "stored" || res.RecordID == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	records, _ := sink.List(context.Background())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.AgentName != AgentName {
		t.Errorf("unexpected agent name %q", rec.AgentName)
	}
	if strings.Contains(rec.PatientSummary, "Mary Jones") || strings.Contains(rec.PatientSummary, "12/01/2025") {
		t.Errorf("PHI reached storage: %q", rec.PatientSummary)
	}
}

func TestStoreHandler_AppendsPerCall(t *testing.T) {
	sink := store.NewMemoryStore()
	handler := newStoreHandler(sink)

	first, _ := handler(nil, StoreArgs{PatientSummary: "note one"})
	second, _ := handler(nil, StoreArgs{PatientSummary: "note two"})
	if first.RecordID == second.RecordID {
		t.Error("expected distinct records per call")
	}

	records, _ := sink.List(context.Background())
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

type failingSink struct{}

func (failingSink) Put(context.Context, store.Record) (string, error) {
	return "", errors.New("firestore unavailable")
}
func (failingSink) List(context.Context) ([]store.Record, error) { return nil, nil }
func (failingSink) Close() error                                 { return nil }

func TestStoreHandler_SwallowsPersistenceFailure(t *testing.T) {
	handler := newStoreHandler(failingSink{})

	res, err := handler(nil, StoreArgs{PatientSummary: "note"})
	if err != nil {
		t.Fatalf("persistence failure must not surface as tool error: %v", err)
	}
	if res.Status != "error" {
		t.Errorf("expected error status, got %+v", res)
	}
}
