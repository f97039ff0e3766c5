package runner

import (
	"context"
	"log/slog"
)

// Notifier delivers a message to whoever administers the collector.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// LogNotifier writes notifications to the default logger at error level.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, subject, body string) error {
	slog.ErrorContext(ctx, "admin notification", "component", "runner", "subject", subject, "body", body)
	return nil
}
