package notifications

import (
	"context"
	"log/slog"
)

// LogMailer writes reset emails to the log instead of sending them. Meant for
// local development only: the log line contains the code.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	if log == nil {
		log = slog.Default()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, msg PasswordResetEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rendered := RenderPasswordReset(msg)
	m.log.InfoContext(ctx, "mail.password_reset",
		"to", rendered.To,
		"subject", rendered.Subject,
		"code", msg.Code,
		"expires_at", msg.ExpiresAt,
	)
	return nil
}
