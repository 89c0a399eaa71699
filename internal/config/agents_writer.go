package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteAgentsFile atomically writes an AgentsFile to disk using a
// temp-file-then-rename pattern, so readers never see partial writes.
func WriteAgentsFile(path string, config *AgentsFile) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal agents config: %w", err)
	}

	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".agents.*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if _, err := os.Stat(tmpPath); err == nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %q: %w", path, err)
	}

	return nil
}

// WriteDefaultAgentsFile creates a starter agents file at path if one
// does not already exist. It never overwrites an existing file.
func WriteDefaultAgentsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}

	return WriteAgentsFile(path, &AgentsFile{
		Version: SupportedAgentsFileVersion,
		Agents:  []AgentModel{},
	})
}
