package notify

import (
	"context"
	"log/slog"
)

// Mailer delivers a single message. Implementations decide the transport.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer records outgoing mail on the logger instead of delivering it.
// It stands in for a real provider in development and tests.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("email sent", "to", to, "subject", subject, "bytes", len(body))
	return nil
}
