package symptom

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
)

// AgentName is the name of the Symptom Analysis Agent.
const AgentName = "symptom_analysis_agent"

// AgentDescription is the description shown to the orchestrating agent.
const AgentDescription = "Structures free-text symptom descriptions, produces a ranked differential diagnosis, and flags emergency red flags."

// New creates a new Symptom Analysis Agent backed by the given LLM.
func New(llm model.LLM) (agent.Agent, error) {
	return llmagent.New(llmagent.Config{
		Name:            AgentName,
		Description:     AgentDescription,
		Model:           llm,
		Instruction:     SystemPrompt,
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}
