package mailer

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// LogSender writes messages to the log instead of delivering them.
// Development only: the body may contain verification codes.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "mailer")}
}

func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.logger.Info(ctx, "mail not delivered, log provider", "to", to, "subject", subject, "body", htmlBody)
	return nil
}
