package encounter

import (
	"context"

	"github.com/drcloud/assistant/internal/logging"
)

// Notifier delivers the out-of-band emergency notification. It fires at
// most once per encounter, independent of the final summary.
type Notifier interface {
	Notify(ctx context.Context, userID, sessionID, reason string) error
}

// LogNotifier is the default Notifier: it records the emergency in the
// service log. Real deployments substitute a paging or messaging
// integration here.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logging.GetLogger("encounter.notifier")}
}

// Notify logs the emergency at error level so it is routed to stderr
// and visible to operators.
func (n *LogNotifier) Notify(_ context.Context, userID, sessionID, reason string) error {
	n.logger.ErrorWithFields("EMERGENCY indicator detected, immediate attention required",
		logging.Field("user_id", userID),
		logging.Field("session_id", sessionID),
		logging.Field("reason", reason),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
