package docagent

import (
	"context"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/drcloud/assistant/internal/logging"
	"github.com/drcloud/assistant/internal/metrics"
	"github.com/drcloud/assistant/internal/phi"
	"github.com/drcloud/assistant/internal/store"
)

// DeidArgs defines the input for the deid_text tool.
type DeidArgs struct {
	// Text is the raw clinical text to scrub.
	Text string `json:"text"`
}

// DeidResult is the de-identified output.
type DeidResult struct {
	Text string `json:"text"`
}

// NewDeidTool creates the deid_text tool. It applies the PHI redaction
// filter to the given text.
func NewDeidTool() (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name: "deid_text",
		Description: `De-identify clinical text before storage or sharing.
Replaces emails, phone numbers, dates, addresses, MRNs, IDs, and person
names with [REDACTED_*] placeholder tokens. Always call this on any text
that may contain patient-identifying information before storing it.`,
	}, deidText)
}

func deidText(_ tool.Context, args DeidArgs) (DeidResult, error) {
	return DeidResult{Text: phi.Redact(args.Text)}, nil
}

// StoreArgs defines the input for the store_documentation tool.
type StoreArgs struct {
	// PatientSummary is the de-identified patient-facing note body.
	PatientSummary string `json:"patient_summary"`
}

// StoreResult reports the outcome of a store call.
type StoreResult struct {
	Status   string `json:"status"`
	RecordID string `json:"record_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// NewStoreTool creates the store_documentation tool bound to the given
// persistence sink. Each call appends a new record; storage failures
// are reported to the agent but never abort the encounter.
func NewStoreTool(sink store.DocumentStore) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name: "store_documentation",
		Description: `Persist the final de-identified encounter note.
Appends a new timestamped record; calling it again creates another
record rather than overwriting the previous one.`,
	}, newStoreHandler(sink))
}

func newStoreHandler(sink store.DocumentStore) func(tool.Context, StoreArgs) (StoreResult, error) {
	logger := logging.GetLogger("documentation.store")

	return func(_ tool.Context, args StoreArgs) (StoreResult, error) {
		// The note must arrive de-identified; run the filter once more
		// so a skipped deid_text call cannot leak PHI into storage.
		summary := phi.Redact(args.PatientSummary)

		id, err := sink.Put(context.Background(), store.Record{
			AgentName:      AgentName,
			PatientSummary: summary,
		})
		if err != nil {
			logger.ErrorWithErr("failed to persist documentation record", err)
			return StoreResult{
				Status:  "error",
				Message: "storage unavailable, note not persisted",
			}, nil
		}

		metrics.DocumentationRecords.Inc()
		return StoreResult{Status: "stored", RecordID: id}, nil
	}
}
