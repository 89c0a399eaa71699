package api

import (
	"context"

	"github.com/drcloud/assistant/internal/agent/runner"
	"github.com/drcloud/assistant/internal/encounter"
)

// ChatService is the conversation backend the API delegates to.
type ChatService interface {
	CreateSession(userID, sessionID string) (created bool)
	SessionState(userID, sessionID string) (encounter.Snapshot, bool)
	DeleteSession(userID, sessionID string)
	ProcessTurn(ctx context.Context, req runner.TurnRequest, events chan<- runner.Event) (*runner.Reply, error)
}

// ReadinessChecker is an interface for checking component readiness
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker is a ReadinessChecker that always returns true.
type NoOpReadinessChecker struct{}

// IsReady always returns true for the no-op checker.
func (n *NoOpReadinessChecker) IsReady() bool {
	return true
}
