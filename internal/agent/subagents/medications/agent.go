package medications

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
)

// AgentName is the name of the Medication Interaction agent.
const AgentName = "medication_interaction_agent"

// AgentDescription is the description shown to the orchestrating agent.
const AgentDescription = "Normalizes medication lists and checks pairwise interactions and contraindications."

// New creates a new Medication Interaction agent backed by the given LLM.
func New(llm model.LLM) (agent.Agent, error) {
	return llmagent.New(llmagent.Config{
		Name:            AgentName,
		Description:     AgentDescription,
		Model:           llm,
		Instruction:     SystemPrompt,
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}
