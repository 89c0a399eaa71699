package model

import "google.golang.org/adk/model"

// Selector picks the LLM for a given agent name. The original system
// configured a model per agent; a Selector keeps that choice injectable.
type Selector interface {
	For(agentName string) model.LLM
}

// Map is a Selector backed by a map with a default fallback.
type Map struct {
	Default  model.LLM
	PerAgent map[string]model.LLM
}

// For returns the agent's LLM, or the default when no override exists.
func (m Map) For(agentName string) model.LLM {
	if llm, ok := m.PerAgent[agentName]; ok && llm != nil {
		return llm
	}
	return m.Default
}

// Single returns a Selector that uses one LLM for every agent.
func Single(llm model.LLM) Selector {
	return Map{Default: llm}
}
