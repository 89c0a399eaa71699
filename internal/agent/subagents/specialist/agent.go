package specialist

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
)

// AgentName is the name of the Specialist Referral agent.
const AgentName = "specialist_referral_agent"

// AgentDescription is the description shown to the orchestrating agent.
const AgentDescription = "Weighs the differential diagnosis and context to recommend specialist referrals with urgency classification."

// New creates a new Specialist Referral agent backed by the given LLM.
func New(llm model.LLM) (agent.Agent, error) {
	return llmagent.New(llmagent.Config{
		Name:            AgentName,
		Description:     AgentDescription,
		Model:           llm,
		Instruction:     SystemPrompt,
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}
