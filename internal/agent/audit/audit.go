// Package audit provides JSONL audit logging for encounters. It
// captures turns, capability invocations, emergencies, and
// documentation events for debugging and reproducibility.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// EventType represents the type of audit event.
type EventType string

const (
	// EventTypeEncounterStart marks the start of a new encounter.
	EventTypeEncounterStart EventType = "encounter_start"
	// EventTypeUserMessage marks a user input message.
	EventTypeUserMessage EventType = "user_message"
	// EventTypeCapabilityStart marks the start of a capability invocation.
	EventTypeCapabilityStart EventType = "capability_start"
	// EventTypeCapabilityComplete marks a capability outcome.
	EventTypeCapabilityComplete EventType = "capability_complete"
	// EventTypeAgentText marks text output from an agent.
	EventTypeAgentText EventType = "agent_text"
	// EventTypeEmergency marks an emergency notification.
	EventTypeEmergency EventType = "emergency"
	// EventTypeDocumentation marks a persisted documentation record.
	EventTypeDocumentation EventType = "documentation"
	// EventTypeTurnComplete marks the end of a conversation turn.
	EventTypeTurnComplete EventType = "turn_complete"
	// EventTypeError marks an error during processing.
	EventTypeError EventType = "error"
	// EventTypeEncounterClosed marks the closure of an encounter.
	EventTypeEncounterClosed EventType = "encounter_closed"
	// EventTypeLLMRequest logs each LLM request with token usage.
	EventTypeLLMRequest EventType = "llm_request"
)

// Event represents a single audit log event.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// Type is the event type.
	Type EventType `json:"type"`
	// SessionID is the session identifier.
	SessionID string `json:"session_id"`
	// Agent is the agent or capability that generated the event (if applicable).
	Agent string `json:"agent,omitempty"`
	// Data contains event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// Logger writes audit events to a JSONL file.
type Logger struct {
	file      *os.File
	writer    *bufio.Writer
	mutex     sync.Mutex
	sessionID string
}

// NewLogger creates an audit logger that appends to the given path.
func NewLogger(filePath, sessionID string) (*Logger, error) {
	// #nosec G304 -- Audit log path is intentionally configurable
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		file:      file,
		writer:    bufio.NewWriter(file),
		sessionID: sessionID,
	}, nil
}

func (l *Logger) write(event Event) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	if _, err := l.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Flush immediately for crash safety
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}

	return nil
}

// LogEncounterStart logs the start of a new encounter.
func (l *Logger) LogEncounterStart(userID, model string) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeEncounterStart,
		SessionID: l.sessionID,
		Data: map[string]interface{}{
			"user_id": userID,
			"model":   model,
		},
	})
}

// LogUserMessage logs a user input message. Callers pass de-identified
// text only.
func (l *Logger) LogUserMessage(message string) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeUserMessage,
		SessionID: l.sessionID,
		Data: map[string]interface{}{
			"message": message,
		},
	})
}

// LogCapabilityStart logs the start of a capability invocation.
func (l *Logger) LogCapabilityStart(capability string) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeCapabilityStart,
		SessionID: l.sessionID,
		Agent:     capability,
	})
}

// LogCapabilityComplete logs a capability outcome.
func (l *Logger) LogCapabilityComplete(capability, status string, duration time.Duration, errMsg string) error {
	data := map[string]interface{}{
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}
	if errMsg != "" {
		data["error"] = errMsg
	}
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeCapabilityComplete,
		SessionID: l.sessionID,
		Agent:     capability,
		Data:      data,
	})
}

// LogAgentText logs text output from an agent.
func (l *Logger) LogAgentText(agentName, content string, isFinal bool) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeAgentText,
		SessionID: l.sessionID,
		Agent:     agentName,
		Data: map[string]interface{}{
			"content":  truncateString(content, 2000),
			"is_final": isFinal,
		},
	})
}

// LogEmergency logs an emergency notification.
func (l *Logger) LogEmergency(capability, reason string) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeEmergency,
		SessionID: l.sessionID,
		Agent:     capability,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// LogDocumentation logs a persisted documentation record.
func (l *Logger) LogDocumentation(recordID string) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeDocumentation,
		SessionID: l.sessionID,
		Data: map[string]interface{}{
			"record_id": recordID,
		},
	})
}

// LogTurnComplete logs the end of a conversation turn.
func (l *Logger) LogTurnComplete(duration time.Duration, emergency bool) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeTurnComplete,
		SessionID: l.sessionID,
		Data: map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
			"emergency":   emergency,
		},
	})
}

// LogError logs an error during processing.
func (l *Logger) LogError(agentName string, err error) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeError,
		SessionID: l.sessionID,
		Agent:     agentName,
		Data: map[string]interface{}{
			"error": err.Error(),
		},
	})
}

// LogEncounterClosed logs the closure of an encounter.
func (l *Logger) LogEncounterClosed(documented bool, turns int) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeEncounterClosed,
		SessionID: l.sessionID,
		Data: map[string]interface{}{
			"documented": documented,
			"turns":      turns,
		},
	})
}

// LogLLMRequest logs an individual LLM request with token usage.
func (l *Logger) LogLLMRequest(provider, model string, inputTokens, outputTokens int) error {
	return l.write(Event{
		Timestamp: time.Now(),
		Type:      EventTypeLLMRequest,
		SessionID: l.sessionID,
		Data: map[string]interface{}{
			"provider":      provider,
			"model":         model,
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
			"total_tokens":  inputTokens + outputTokens,
		},
	})
}

// Close closes the audit logger and flushes any pending writes.
func (l *Logger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	var errs []error

	if err := l.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush audit log: %w", err))
	}

	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close audit log file: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing audit log: %v", errs)
	}

	return nil
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...[truncated]"
}
