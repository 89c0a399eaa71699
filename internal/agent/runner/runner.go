// Package runner wires the LLM backends, capability registrations, and
// encounter router into the service used by the HTTP API. It processes
// chat turns and emits typed events for streaming responses.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	adkmodel "google.golang.org/adk/model"

	"github.com/drcloud/assistant/internal/agent/audit"
	"github.com/drcloud/assistant/internal/agent/capability"
	"github.com/drcloud/assistant/internal/agent/model"
	"github.com/drcloud/assistant/internal/agent/provider"
	"github.com/drcloud/assistant/internal/encounter"
	"github.com/drcloud/assistant/internal/logging"
	"github.com/drcloud/assistant/internal/store"
)

// AppName is the service application name.
const AppName = "drcloud-assistant"

// Provider identifiers accepted in configuration.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// EventType classifies a streamed event.
type EventType string

const (
	// EventTypeStatus reports routing progress.
	EventTypeStatus EventType = "status"
	// EventTypeCapability reports one capability outcome.
	EventTypeCapability EventType = "capability"
	// EventTypeResponse carries the aggregated patient-facing response.
	EventTypeResponse EventType = "response"
	// EventTypeError carries a processing error.
	EventTypeError EventType = "error"
	// EventTypeComplete terminates a stream.
	EventTypeComplete EventType = "complete"
)

// Event is one server-sent frame.
type Event struct {
	Type     EventType      `json:"type"`
	Content  string         `json:"content,omitempty"`
	Author   string         `json:"author,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Config contains the service configuration.
type Config struct {
	// Provider selects the LLM backend: gemini, anthropic, or mock.
	Provider string

	// Model is the default model name for all agents.
	Model string

	// APIKey is the provider API key. Empty falls back to the
	// provider's environment variable.
	APIKey string

	// AgentModels maps agent names to model-name overrides.
	AgentModels map[string]string

	// CapabilityTimeout bounds each capability invocation.
	CapabilityTimeout time.Duration

	// AuditDir is where per-session JSONL audit logs are written.
	// Empty disables audit logging.
	AuditDir string

	// DocumentStore is the persistence sink for encounter notes.
	DocumentStore store.DocumentStore

	// Notifier receives emergency notifications. Nil falls back to the
	// log notifier.
	Notifier encounter.Notifier
}

// Reply is the result of one processed chat turn.
type Reply struct {
	Response string
	Metadata map[string]any
}

// Service processes chat turns against the encounter router.
type Service struct {
	cfg    Config
	router *encounter.Router
	models *switchingSelector
	logger *logging.Logger

	mu       sync.Mutex
	auditors map[string]*audit.Logger
}

// New creates the service: LLM adapters per configured model, the six
// capabilities, the dispatcher, and the router.
func New(cfg Config) (*Service, error) {
	if cfg.DocumentStore == nil {
		return nil, fmt.Errorf("document store is required")
	}

	selector, err := newSwitchingSelector(cfg)
	if err != nil {
		return nil, err
	}

	regs, docCap, err := capability.BuildRegistrations(selector, cfg.DocumentStore)
	if err != nil {
		return nil, fmt.Errorf("failed to build capabilities: %w", err)
	}

	dispatcher := encounter.NewDispatcher(regs, cfg.CapabilityTimeout, cfg.Notifier)
	router := encounter.NewRouter(encounter.NewStore(), dispatcher, docCap)

	return &Service{
		cfg:      cfg,
		router:   router,
		models:   selector,
		logger:   logging.GetLogger("agent.runner"),
		auditors: make(map[string]*audit.Logger),
	}, nil
}

// switchingSelector hands each agent a Switchable LLM, so model
// overrides from an agents-file reload can retarget a running agent
// without rebuilding it.
type switchingSelector struct {
	mu           sync.Mutex
	cfg          Config
	defaultModel string
	overrides    map[string]string
	built        map[string]adkmodel.LLM
	agents       map[string]*model.Switchable
}

// newSwitchingSelector builds the default model plus every override
// model up front, so selection never fails later.
func newSwitchingSelector(cfg Config) (*switchingSelector, error) {
	s := &switchingSelector{
		cfg:          cfg,
		defaultModel: cfg.Model,
		overrides:    make(map[string]string, len(cfg.AgentModels)),
		built:        make(map[string]adkmodel.LLM),
		agents:       make(map[string]*model.Switchable),
	}
	for agentName, modelName := range cfg.AgentModels {
		s.overrides[agentName] = modelName
	}

	if _, err := s.llmFor(cfg.Model); err != nil {
		return nil, err
	}
	for agentName, modelName := range s.overrides {
		if _, err := s.llmFor(modelName); err != nil {
			return nil, fmt.Errorf("failed to build model for %s: %w", agentName, err)
		}
	}
	return s, nil
}

// llmFor returns the adapter for a model name, building and caching it
// on first use. Callers must hold no lock across Apply; internal calls
// are serialized by the caller.
func (s *switchingSelector) llmFor(modelName string) (adkmodel.LLM, error) {
	if llm, ok := s.built[modelName]; ok {
		return llm, nil
	}
	llm, err := buildLLM(s.cfg, modelName)
	if err != nil {
		return nil, err
	}
	s.built[modelName] = llm
	return llm, nil
}

// For implements model.Selector. Every model it can hand out was built
// during construction, so lookups cannot fail.
func (s *switchingSelector) For(agentName string) adkmodel.LLM {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sw, ok := s.agents[agentName]; ok {
		return sw
	}

	modelName := s.defaultModel
	if override, ok := s.overrides[agentName]; ok {
		modelName = override
	}
	sw := model.NewSwitchable(s.built[modelName])
	s.agents[agentName] = sw
	return sw
}

// Apply retargets agents to the given override set. Agents absent from
// the set fall back to the default model. All new models are built
// before any agent is switched, so a bad override leaves every agent
// untouched.
func (s *switchingSelector) Apply(overrides map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make(map[string]adkmodel.LLM, len(s.agents))
	for agentName := range s.agents {
		modelName := s.defaultModel
		if override, ok := overrides[agentName]; ok {
			modelName = override
		}
		llm, err := s.llmFor(modelName)
		if err != nil {
			return fmt.Errorf("failed to build model %q for %s: %w", modelName, agentName, err)
		}
		targets[agentName] = llm
	}

	for agentName, llm := range targets {
		s.agents[agentName].Swap(llm)
	}
	s.overrides = overrides
	return nil
}

var _ model.Selector = (*switchingSelector)(nil)

// ApplyModelOverrides retargets agents to new model overrides, for the
// agents-file hot reload path.
func (s *Service) ApplyModelOverrides(overrides map[string]string) error {
	if err := s.models.Apply(overrides); err != nil {
		return err
	}
	s.logger.Info("applied %d agent model overrides", len(overrides))
	return nil
}

func buildLLM(cfg Config, modelName string) (adkmodel.LLM, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return model.NewGeminiLLM(context.Background(), cfg.APIKey, modelName)
	case ProviderAnthropic:
		pcfg := &provider.Config{Model: modelName}
		if cfg.APIKey != "" {
			return model.NewAnthropicLLMWithKey(cfg.APIKey, pcfg)
		}
		return model.NewAnthropicLLM(pcfg)
	case ProviderMock:
		return model.NewMockLLM(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewSessionIDs generates identifiers for a new session when the
// caller did not supply them.
func NewSessionIDs(userID, sessionID string) (string, string) {
	if userID == "" {
		userID = "user_" + uuid.NewString()[:8]
	}
	if sessionID == "" {
		sessionID = "session_" + uuid.NewString()[:8]
	}
	return userID, sessionID
}

// CreateSession creates or reuses the encounter for the pair.
// Creation is idempotent.
func (s *Service) CreateSession(userID, sessionID string) (created bool) {
	_, created = s.router.Store().GetOrCreate(userID, sessionID)
	if created {
		if a := s.auditor(sessionID); a != nil {
			_ = a.LogEncounterStart(userID, s.cfg.Model)
		}
	}
	return created
}

// SessionState returns the encounter snapshot for the pair.
func (s *Service) SessionState(userID, sessionID string) (encounter.Snapshot, bool) {
	enc, ok := s.router.Store().Get(userID, sessionID)
	if !ok {
		return encounter.Snapshot{}, false
	}
	return enc.Snapshot(), true
}

// DeleteSession removes the encounter for the pair. Deleting a missing
// session is a no-op.
func (s *Service) DeleteSession(userID, sessionID string) {
	s.router.Store().Delete(userID, sessionID)

	s.mu.Lock()
	a := s.auditors[sessionID]
	delete(s.auditors, sessionID)
	s.mu.Unlock()
	if a != nil {
		_ = a.Close()
	}
}

// TurnRequest is one chat turn as received from the API.
type TurnRequest struct {
	UserID      string
	SessionID   string
	Message     string
	SymptomText string
	LabReport   string
	Medications []string
	Lifestyle   map[string]string
}

// ProcessTurn runs one chat turn. When events is non-nil, progress and
// results are emitted on it; the channel is not closed here.
func (s *Service) ProcessTurn(ctx context.Context, req TurnRequest, events chan<- Event) (*Reply, error) {
	start := time.Now()

	in := &encounter.TurnInput{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Message:     req.Message,
		SymptomText: req.SymptomText,
		LabReport:   req.LabReport,
		Medications: req.Medications,
		Lifestyle:   req.Lifestyle,
		Done:        isDoneSignal(req.Message),
	}

	a := s.auditor(req.SessionID)
	if a != nil {
		_ = a.LogUserMessage(req.Message)
	}

	emit(events, Event{Type: EventTypeStatus, Content: "routing"})

	out, err := s.router.ProcessTurn(ctx, in)
	if err != nil {
		if a != nil {
			_ = a.LogError(AppName, err)
		}
		emit(events, Event{Type: EventTypeError, Content: err.Error()})
		return nil, err
	}

	for name, res := range out.Audit {
		emit(events, Event{
			Type:   EventTypeCapability,
			Author: name,
			Metadata: map[string]any{
				"status": res.Status,
				"error":  res.Error,
			},
		})
		if a != nil {
			_ = a.LogCapabilityComplete(name, string(res.Status), 0, res.Error)
		}
	}

	if out.Emergency && a != nil {
		_ = a.LogEmergency(AppName, "emergency indicator present")
	}

	reply := &Reply{
		Response: out.Response,
		Metadata: map[string]any{
			"state":     out.State,
			"emergency": out.Emergency,
			"acm":       out.Audit,
		},
	}
	if out.ClinicianSummary != nil {
		reply.Metadata["patient_summary"] = out.PatientSummary
		reply.Metadata["clinician_summary"] = out.ClinicianSummary
	}

	emit(events, Event{
		Type:     EventTypeResponse,
		Content:  reply.Response,
		Author:   AppName,
		Metadata: reply.Metadata,
	})

	if a != nil {
		_ = a.LogTurnComplete(time.Since(start), out.Emergency)
		if out.State == encounter.StateClosed && out.ClinicianSummary != nil {
			_ = a.LogEncounterClosed(out.ClinicianSummary.Documented, out.ClinicianSummary.Turns)
		}
	}

	return reply, nil
}

// emit sends an event without blocking turn processing on a slow
// consumer with a full buffer.
func emit(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}

// isDoneSignal reports whether the user ended the encounter. The
// frontend sends the literal DONE command.
func isDoneSignal(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), "done")
}

// auditor lazily creates the per-session audit logger.
func (s *Service) auditor(sessionID string) *audit.Logger {
	if s.cfg.AuditDir == "" || sessionID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.auditors[sessionID]; ok {
		return a
	}

	path := filepath.Join(s.cfg.AuditDir, sessionID+".audit.log")
	a, err := audit.NewLogger(path, sessionID)
	if err != nil {
		s.logger.ErrorWithErr("failed to create audit logger", err)
		return nil
	}
	s.auditors[sessionID] = a
	return a
}

// Close releases per-session audit loggers.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.auditors {
		_ = a.Close()
		delete(s.auditors, id)
	}
	return nil
}
