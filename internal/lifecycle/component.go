// Package lifecycle manages startup and shutdown of service components
// with dependency ordering.
package lifecycle

import "context"

// Component is the lifecycle interface implemented by managed components
// (persistence sink, agent runtime, API server).
type Component interface {
	// Start initializes and starts the component. The context can signal
	// shutdown or carry a deadline. Must be safe to call once per manager
	// run; returns an error if initialization fails.
	Start(ctx context.Context) error

	// Stop gracefully stops the component, allowing in-flight work to
	// finish within the context deadline. Errors are logged by the
	// manager and do not prevent other components from stopping.
	Stop(ctx context.Context) error

	// Name returns the human-readable component name used in logs and
	// dependency declarations. Must be non-empty.
	Name() string
}
