package docagent

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"

	"github.com/drcloud/assistant/internal/store"
)

// AgentName is the name of the Clinical Documentation agent.
const AgentName = "clinical_documentation_agent"

// AgentDescription is the description shown to the orchestrating agent.
const AgentDescription = "Aggregates encounter data into a SOAP note, de-identifies it, and stores the record. Must run once per encounter."

// New creates a new Clinical Documentation agent backed by the given
// LLM and persistence sink.
func New(llm model.LLM, sink store.DocumentStore) (agent.Agent, error) {
	deidTool, err := NewDeidTool()
	if err != nil {
		return nil, err
	}

	storeTool, err := NewStoreTool(sink)
	if err != nil {
		return nil, err
	}

	return llmagent.New(llmagent.Config{
		Name:            AgentName,
		Description:     AgentDescription,
		Model:           llm,
		Instruction:     SystemPrompt,
		Tools:           []tool.Tool{deidTool, storeTool},
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}
