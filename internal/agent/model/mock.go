package model

import (
	"context"
	"iter"
	"sync"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// MockLLM implements model.LLM for testing and offline runs without
// real API calls. It replays a fixed sequence of text responses; the
// last response repeats once the script is exhausted.
type MockLLM struct {
	mu        sync.Mutex
	responses []string
	index     int
	delay     time.Duration

	// Respond, when set, overrides the scripted responses and computes
	// the reply from the request.
	Respond func(req *model.LLMRequest) string
}

// NewMockLLM creates a scripted mock. With no responses it answers
// with a fixed acknowledgement.
func NewMockLLM(responses ...string) *MockLLM {
	if len(responses) == 0 {
		responses = []string{"Understood."}
	}
	return &MockLLM{responses: responses}
}

// WithDelay sets a per-request delay to simulate model latency.
func (m *MockLLM) WithDelay(d time.Duration) *MockLLM {
	m.delay = d
	return m
}

// Name returns the mock model identifier.
func (m *MockLLM) Name() string {
	return "mock"
}

// GenerateContent implements model.LLM.GenerateContent.
func (m *MockLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if m.delay > 0 {
			select {
			case <-time.After(m.delay):
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			}
		}

		text := m.next(req)
		yield(&model.LLMResponse{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: text}},
			},
			FinishReason: genai.FinishReasonStop,
			TurnComplete: true,
		}, nil)
	}
}

func (m *MockLLM) next(req *model.LLMRequest) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(req)
	}
	text := m.responses[m.index]
	if m.index < len(m.responses)-1 {
		m.index++
	}
	return text
}

// Ensure MockLLM implements model.LLM at compile time.
var _ model.LLM = (*MockLLM)(nil)
