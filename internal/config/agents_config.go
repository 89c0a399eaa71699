package config

import "fmt"

// SupportedAgentsFileVersion is the only schema version accepted.
const SupportedAgentsFileVersion = 1

// AgentsFile is the schema of the agents YAML file. It assigns model
// overrides to individual agents; agents not listed use the process
// default model.
type AgentsFile struct {
	// Version is the schema version. Must be 1.
	Version int `yaml:"version"`

	// Agents lists per-agent model overrides.
	Agents []AgentModel `yaml:"agents"`
}

// AgentModel binds one agent to a model name.
type AgentModel struct {
	// Name is the agent name, e.g. symptom_analysis_agent.
	Name string `yaml:"name"`

	// Model is the model name to use for this agent.
	Model string `yaml:"model"`
}

// Validate checks schema version, required fields, and duplicate names.
func (f *AgentsFile) Validate() error {
	if f.Version != SupportedAgentsFileVersion {
		return fmt.Errorf("unsupported agents file version %d (expected %d)", f.Version, SupportedAgentsFileVersion)
	}

	seen := make(map[string]bool, len(f.Agents))
	for i, a := range f.Agents {
		if a.Name == "" {
			return fmt.Errorf("agents[%d]: name is required", i)
		}
		if a.Model == "" {
			return fmt.Errorf("agents[%d] (%s): model is required", i, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
	}

	return nil
}

// ModelOverrides returns the per-agent overrides as a map.
func (f *AgentsFile) ModelOverrides() map[string]string {
	overrides := make(map[string]string, len(f.Agents))
	for _, a := range f.Agents {
		overrides[a.Name] = a.Model
	}
	return overrides
}
