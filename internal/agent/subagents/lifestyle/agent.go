package lifestyle

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
)

// AgentName is the name of the Lifestyle & Prevention agent.
const AgentName = "lifestyle_prevention_agent"

// AgentDescription is the description shown to the orchestrating agent.
const AgentDescription = "Turns self-reported lifestyle metrics into guideline-based short-term and long-term goals."

// New creates a new Lifestyle & Prevention agent backed by the given LLM.
func New(llm model.LLM) (agent.Agent, error) {
	return llmagent.New(llmagent.Config{
		Name:            AgentName,
		Description:     AgentDescription,
		Model:           llm,
		Instruction:     SystemPrompt,
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}
