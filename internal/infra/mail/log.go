package mail

import (
	"context"
	"io"
	"log/slog"

	"storefront/internal/notification"
)

// 開発用: 送らずにログに出すだけ
type LogMailer struct {
	log *slog.Logger
}

var _ notification.Mailer = (*LogMailer)(nil)

func NewLogMailer(log *slog.Logger) *LogMailer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg notification.Message) error {
	m.log.InfoContext(ctx, "mail (log only)", "to", msg.To, "subject", msg.Subject, "body", msg.TextBody)
	return nil
}
