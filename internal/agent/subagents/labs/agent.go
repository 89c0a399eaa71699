package labs

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
)

// AgentName is the name of the Lab Result Interpreter agent.
const AgentName = "lab_result_interpreter_agent"

// AgentDescription is the description shown to the orchestrating agent.
const AgentDescription = "Parses lab result payloads, compares values to reference ranges, and flags critical values."

// New creates a new Lab Result Interpreter agent backed by the given LLM.
func New(llm model.LLM) (agent.Agent, error) {
	return llmagent.New(llmagent.Config{
		Name:            AgentName,
		Description:     AgentDescription,
		Model:           llm,
		Instruction:     SystemPrompt,
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}
