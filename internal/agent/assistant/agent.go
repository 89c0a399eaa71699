package assistant

import (
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"

	"github.com/drcloud/assistant/internal/agent/model"
	documentation "github.com/drcloud/assistant/internal/agent/subagents/documentation"
	"github.com/drcloud/assistant/internal/agent/subagents/labs"
	"github.com/drcloud/assistant/internal/agent/subagents/lifestyle"
	"github.com/drcloud/assistant/internal/agent/subagents/medications"
	"github.com/drcloud/assistant/internal/agent/subagents/specialist"
	"github.com/drcloud/assistant/internal/agent/subagents/symptom"
	"github.com/drcloud/assistant/internal/store"
)

// AgentName is the name of the primary care agent.
const AgentName = "dr_cloud_primary_agent"

// AgentDescription describes the root agent.
const AgentDescription = "Primary care physician agent coordinating symptom analysis, labs, medications, lifestyle, referrals, and documentation."

// New composes the primary care agent with all six sub-agents.
func New(models model.Selector, sink store.DocumentStore) (agent.Agent, error) {
	symptomAgent, err := symptom.New(models.For(symptom.AgentName))
	if err != nil {
		return nil, fmt.Errorf("failed to create symptom agent: %w", err)
	}
	labAgent, err := labs.New(models.For(labs.AgentName))
	if err != nil {
		return nil, fmt.Errorf("failed to create labs agent: %w", err)
	}
	medAgent, err := medications.New(models.For(medications.AgentName))
	if err != nil {
		return nil, fmt.Errorf("failed to create medications agent: %w", err)
	}
	lifestyleAgent, err := lifestyle.New(models.For(lifestyle.AgentName))
	if err != nil {
		return nil, fmt.Errorf("failed to create lifestyle agent: %w", err)
	}
	specialistAgent, err := specialist.New(models.For(specialist.AgentName))
	if err != nil {
		return nil, fmt.Errorf("failed to create specialist agent: %w", err)
	}
	docAgent, err := documentation.New(models.For(documentation.AgentName), sink)
	if err != nil {
		return nil, fmt.Errorf("failed to create documentation agent: %w", err)
	}

	return llmagent.New(llmagent.Config{
		Name:        AgentName,
		Description: AgentDescription,
		Model:       models.For(AgentName),
		Instruction: SystemPrompt,
		SubAgents: []agent.Agent{
			symptomAgent,
			labAgent,
			medAgent,
			lifestyleAgent,
			specialistAgent,
			docAgent,
		},
		IncludeContents: llmagent.IncludeContentsDefault,
	})
}
