package model

import (
	"context"
	"iter"
	"sync/atomic"

	"google.golang.org/adk/model"
)

// Switchable is an LLM whose backing model can be replaced at runtime.
// Agents hold their model for their whole lifetime, so retargeting an
// agent to a different model after a config reload goes through this
// indirection instead of rebuilding the agent.
type Switchable struct {
	cur atomic.Pointer[llmHolder]
}

type llmHolder struct {
	llm model.LLM
}

// NewSwitchable wraps an initial model.
func NewSwitchable(initial model.LLM) *Switchable {
	s := &Switchable{}
	s.cur.Store(&llmHolder{llm: initial})
	return s
}

// Swap replaces the backing model. In-flight generations finish on the
// model they started with.
func (s *Switchable) Swap(llm model.LLM) {
	s.cur.Store(&llmHolder{llm: llm})
}

// Current returns the backing model.
func (s *Switchable) Current() model.LLM {
	return s.cur.Load().llm
}

// Name implements model.LLM.
func (s *Switchable) Name() string {
	return s.Current().Name()
}

// GenerateContent implements model.LLM.
func (s *Switchable) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return s.Current().GenerateContent(ctx, req, stream)
}

var _ model.LLM = (*Switchable)(nil)
