// Package config holds the service configuration: flag-driven process
// settings plus a YAML agents file with per-agent model overrides that
// can be hot-reloaded at runtime.
package config

// Storage backend identifiers.
const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
)

// Config holds all configuration for the application
type Config struct {
	// APIPort is the port the API server listens on
	APIPort int

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string

	// Provider is the LLM backend (gemini, anthropic, mock)
	Provider string

	// Model is the default model name for all agents
	Model string

	// APIKey is the LLM provider API key. Empty falls back to the
	// provider's environment variable.
	APIKey string

	// AgentsConfigPath is the path to the YAML file with per-agent
	// model overrides. Empty disables the agents file and watcher.
	AgentsConfigPath string

	// AuditDir is the directory where session audit logs are written.
	// Empty disables audit logging.
	AuditDir string

	// Storage selects the documentation backend (memory, firestore)
	Storage string

	// FirestoreProject is the GCP project for the firestore backend
	FirestoreProject string

	// FirestoreCollection is the firestore collection for notes
	FirestoreCollection string

	// CapabilityTimeoutSeconds bounds each capability invocation
	CapabilityTimeoutSeconds int
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	switch c.Provider {
	case "gemini", "anthropic", "mock":
	default:
		return NewConfigError("Provider must be one of gemini, anthropic, mock")
	}

	if c.Model == "" {
		return NewConfigError("Model must not be empty")
	}

	switch c.Storage {
	case StorageMemory:
	case StorageFirestore:
		if c.FirestoreProject == "" {
			return NewConfigError("FirestoreProject must be set when Storage is firestore")
		}
		if c.FirestoreCollection == "" {
			return NewConfigError("FirestoreCollection must be set when Storage is firestore")
		}
	default:
		return NewConfigError("Storage must be one of memory, firestore")
	}

	if c.CapabilityTimeoutSeconds < 1 {
		return NewConfigError("CapabilityTimeoutSeconds must be at least 1")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
