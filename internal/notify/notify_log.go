package notify

import (
	"context"
	"log/slog"
)

// LogNotifier records notifications to the log. Default when no broker is
// configured; also used in tests.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "decision notification",
		"subject_id", notification.SubjectID,
		"verification_id", notification.VerificationID,
		"outcome", notification.Outcome,
		"purpose", notification.Purpose,
		"subject_verified", notification.SubjectVerified,
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
