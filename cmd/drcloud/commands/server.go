package commands

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drcloud/assistant/internal/agent/runner"
	"github.com/drcloud/assistant/internal/api"
	"github.com/drcloud/assistant/internal/config"
	"github.com/drcloud/assistant/internal/encounter"
	"github.com/drcloud/assistant/internal/lifecycle"
	"github.com/drcloud/assistant/internal/logging"
	"github.com/drcloud/assistant/internal/store"
)

var (
	apiPort                  int
	provider                 string
	modelName                string
	apiKey                   string
	agentsConfigPath         string
	auditDir                 string
	storageBackend           string
	firestoreProject         string
	firestoreCollection      string
	capabilityTimeoutSeconds int
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Dr. Cloud server",
	Long: `Start the Dr. Cloud server which exposes the chat API, routes
conversation turns to the specialized agents, and persists de-identified
clinical documentation.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8000, "Port the API server listens on")
	serverCmd.Flags().StringVar(&provider, "provider", "gemini", "LLM provider (gemini, anthropic, mock)")
	serverCmd.Flags().StringVar(&modelName, "model", "gemini-2.5-flash", "Default model for all agents")
	serverCmd.Flags().StringVar(&apiKey, "api-key", "", "LLM provider API key (falls back to the provider's environment variable)")
	serverCmd.Flags().StringVar(&agentsConfigPath, "agents-config", "agents.yaml",
		"Path to the YAML file with per-agent model overrides. Empty disables the file and hot reload.")
	serverCmd.Flags().StringVar(&auditDir, "audit-dir", "",
		"Directory to write per-session audit logs (JSONL format). If empty, audit logging is disabled.")
	serverCmd.Flags().StringVar(&storageBackend, "storage", config.StorageMemory, "Documentation storage backend (memory, firestore)")
	serverCmd.Flags().StringVar(&firestoreProject, "firestore-project", "", "GCP project for the firestore backend")
	serverCmd.Flags().StringVar(&firestoreCollection, "firestore-collection", "clinical_documentation", "Firestore collection for documentation records")
	serverCmd.Flags().IntVar(&capabilityTimeoutSeconds, "capability-timeout-seconds", 60, "Timeout per capability invocation in seconds")
}

// serviceReadiness flips to ready once all components have started.
type serviceReadiness struct {
	ready atomic.Bool
}

func (r *serviceReadiness) IsReady() bool { return r.ready.Load() }
func (r *serviceReadiness) SetReady()     { r.ready.Store(true) }

// watcherComponent adapts the agents config watcher to the lifecycle
// manager's component contract.
type watcherComponent struct {
	watcher *config.AgentsWatcher
}

func (w *watcherComponent) Start(ctx context.Context) error { return w.watcher.Start(ctx) }
func (w *watcherComponent) Stop(ctx context.Context) error  { return w.watcher.Stop() }
func (w *watcherComponent) Name() string                    { return "Agents Config Watcher" }

func runServer(cmd *cobra.Command, args []string) {
	cfg := &config.Config{
		APIPort:                  apiPort,
		Provider:                 provider,
		Model:                    modelName,
		APIKey:                   apiKey,
		AgentsConfigPath:         agentsConfigPath,
		AuditDir:                 auditDir,
		Storage:                  storageBackend,
		FirestoreProject:         firestoreProject,
		FirestoreCollection:      firestoreCollection,
		CapabilityTimeoutSeconds: capabilityTimeoutSeconds,
	}
	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}

	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("server")

	logger.Info("Starting Dr. Cloud v%s", Version)
	logger.Debug("Configuration loaded: APIPort=%d Provider=%s Model=%s Storage=%s",
		cfg.APIPort, cfg.Provider, cfg.Model, cfg.Storage)

	if cfg.AuditDir != "" {
		if err := os.MkdirAll(cfg.AuditDir, 0o750); err != nil {
			HandleError(err, "Audit directory error")
		}
	}

	// Documentation store
	var docStore store.DocumentStore
	switch cfg.Storage {
	case config.StorageFirestore:
		fs, err := store.NewFirestoreStore(context.Background(), cfg.FirestoreProject, cfg.FirestoreCollection)
		if err != nil {
			HandleError(err, "Firestore initialization error")
		}
		docStore = fs
		logger.Info("Using firestore documentation store (project: %s)", cfg.FirestoreProject)
	default:
		docStore = store.NewMemoryStore()
		logger.Warn("Using in-memory documentation store; records are lost on restart")
	}

	// Load initial agent model overrides so the first turn already uses
	// them; the watcher keeps them current afterwards.
	agentModels := map[string]string{}
	if cfg.AgentsConfigPath != "" {
		if err := config.WriteDefaultAgentsFile(cfg.AgentsConfigPath); err != nil {
			HandleError(err, "Agents config creation error")
		}
		agentsFile, err := config.LoadAgentsFile(cfg.AgentsConfigPath)
		if err != nil {
			HandleError(err, "Agents config error")
		}
		agentModels = agentsFile.ModelOverrides()
	}

	svc, err := runner.New(runner.Config{
		Provider:          cfg.Provider,
		Model:             cfg.Model,
		APIKey:            cfg.APIKey,
		AgentModels:       agentModels,
		CapabilityTimeout: time.Duration(cfg.CapabilityTimeoutSeconds) * time.Second,
		AuditDir:          cfg.AuditDir,
		DocumentStore:     docStore,
		Notifier:          encounter.NewLogNotifier(),
	})
	if err != nil {
		HandleError(err, "Service initialization error")
	}
	logger.Info("Conversation service created")

	manager := lifecycle.NewManager()

	if cfg.AgentsConfigPath != "" {
		watcher, err := config.NewAgentsWatcher(
			config.AgentsWatcherConfig{FilePath: cfg.AgentsConfigPath},
			func(file *config.AgentsFile) error {
				return svc.ApplyModelOverrides(file.ModelOverrides())
			},
		)
		if err != nil {
			HandleError(err, "Agents watcher error")
		}
		if err := manager.Register(&watcherComponent{watcher: watcher}); err != nil {
			HandleError(err, "Agents watcher registration error")
		}
		logger.Info("Agents config watcher registered for %s", cfg.AgentsConfigPath)
	}

	readiness := &serviceReadiness{}
	apiComponent := api.New(cfg.APIPort, svc, readiness)
	if err := manager.Register(apiComponent); err != nil {
		HandleError(err, "API server registration error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := manager.Start(ctx); err != nil {
		HandleError(err, "Startup error")
	}
	readiness.SetReady()

	logger.Info("Application started successfully")
	logger.Info("Listening for chat requests on port %d", cfg.APIPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	if err := svc.Close(); err != nil {
		logger.Error("Failed to close conversation service: %v", err)
	}
	if err := docStore.Close(); err != nil {
		logger.Error("Failed to close documentation store: %v", err)
	}

	logger.Info("Shutdown complete")
}
