// Package capability bridges the ADK sub-agents into the encounter
// router's Capability contract. Each capability runs its agent through
// its own ADK runner and session service, so one capability's session
// history never leaks into another's.
package capability

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	adksession "google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/drcloud/assistant/internal/encounter"
	"github.com/drcloud/assistant/internal/logging"
)

// emergencyPattern matches the emergency marker the sub-agent prompts
// require in structured output.
var emergencyPattern = regexp.MustCompile(`(?i)"?emergency"?\s*[:=]\s*true`)

// DetectEmergency reports whether agent output carries an emergency
// indicator.
func DetectEmergency(text string) bool {
	return emergencyPattern.MatchString(text)
}

// renderFunc formats a turn input into the user message for one agent.
type renderFunc func(in *encounter.TurnInput) string

// adkCapability runs one llmagent through an ADK runner.
type adkCapability struct {
	name     string
	appName  string
	runner   *runner.Runner
	sessions adksession.Service
	render   renderFunc
	logger   *logging.Logger

	mu      sync.Mutex
	created map[string]bool
}

func newADKCapability(name string, ag agent.Agent, render renderFunc) (*adkCapability, error) {
	appName := "drcloud-" + name
	sessions := adksession.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          ag,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner for %s: %w", name, err)
	}

	return &adkCapability{
		name:     name,
		appName:  appName,
		runner:   r,
		sessions: sessions,
		render:   render,
		logger:   logging.GetLogger("capability." + name),
		created:  make(map[string]bool),
	}, nil
}

// Name implements encounter.Capability.
func (c *adkCapability) Name() string { return c.name }

// Invoke implements encounter.Capability. It sends the rendered turn
// input through the agent and returns the agent's final text.
func (c *adkCapability) Invoke(ctx context.Context, in *encounter.TurnInput) (*encounter.Result, error) {
	if err := c.ensureSession(ctx, in.UserID, in.SessionID); err != nil {
		return nil, err
	}

	prompt := c.render(in)
	if prompt == "" {
		return nil, fmt.Errorf("nothing to analyze for %s", c.name)
	}

	userContent := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}

	var lastText string
	for event, err := range c.runner.Run(ctx, in.UserID, in.SessionID, userContent, agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}) {
		if err != nil {
			return nil, fmt.Errorf("%s run failed: %w", c.name, err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				lastText = part.Text
			}
		}
	}

	if lastText == "" {
		return nil, fmt.Errorf("%s produced no output", c.name)
	}
	c.logger.Debug("agent returned %d bytes", len(lastText))

	result := &encounter.Result{Output: lastText}
	if DetectEmergency(lastText) {
		result.Emergency = true
		result.EmergencyReason = c.name + " flagged a life-threatening finding"
	}
	return result, nil
}

// ensureSession creates the ADK session on first use for a
// (userID, sessionID) pair.
func (c *adkCapability) ensureSession(ctx context.Context, userID, sessionID string) error {
	key := userID + "/" + sessionID

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.created[key] {
		return nil
	}

	_, err := c.sessions.Create(ctx, &adksession.CreateRequest{
		AppName:   c.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s session: %w", c.name, err)
	}
	c.created[key] = true
	return nil
}

var _ encounter.Capability = (*adkCapability)(nil)
