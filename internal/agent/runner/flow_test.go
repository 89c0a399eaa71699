package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drcloud/assistant/internal/encounter"
	"github.com/drcloud/assistant/internal/store"
)

// TestFullEncounterFlow drives a whole encounter through the service:
// symptom turn, lab and medication turn, then the done signal.
func TestFullEncounterFlow(t *testing.T) {
	docs := store.NewMemoryStore()
	svc, err := New(Config{
		Provider:      ProviderMock,
		Model:         "mock",
		AuditDir:      t.TempDir(),
		DocumentStore: docs,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	created := svc.CreateSession("user_flow", "session_flow")
	require.True(t, created)

	ctx := context.Background()

	reply, err := svc.ProcessTurn(ctx, TurnRequest{
		UserID:    "user_flow",
		SessionID: "session_flow",
		Message:   "I have been unusually thirsty and tired for two weeks",
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Response)

	reply, err = svc.ProcessTurn(ctx, TurnRequest{
		UserID:      "user_flow",
		SessionID:   "session_flow",
		Message:     "here are my labs and medications",
		LabReport:   "test,value,unit\nglucose,240,mg/dL\nhba1c,9.1,%",
		Medications: []string{"metformin", "lisinopril"},
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Response)

	snap, ok := svc.SessionState("user_flow", "session_flow")
	require.True(t, ok)
	assert.Equal(t, 2, snap.Turns)
	assert.Contains(t, snap.Results, "lab_interpretation")
	assert.Contains(t, snap.Results, "medication_interaction")

	reply, err = svc.ProcessTurn(ctx, TurnRequest{
		UserID:    "user_flow",
		SessionID: "session_flow",
		Message:   "DONE",
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Metadata, "clinician_summary")

	snap, ok = svc.SessionState("user_flow", "session_flow")
	require.True(t, ok)
	assert.Equal(t, encounter.StateClosed, snap.State)
	assert.True(t, snap.Documented)
	assert.NotNil(t, snap.ClosedAt)
}
