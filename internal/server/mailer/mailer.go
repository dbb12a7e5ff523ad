// Package mailer delivers outbound HTML email through SendGrid, Amazon SES or,
// in development, the application log.
package mailer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
)

// Sender sends a single HTML message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New builds the Sender selected by cfg.MailProvider.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (Sender, error) {
	switch cfg.MailProvider {
	case config.MailProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, cfg.SendGridSandbox), nil
	case config.MailProviderSES:
		return NewSESSender(ctx, SESOptions{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
			Endpoint:        cfg.SESEndpoint,
			From:            cfg.MailFrom,
			FromName:        cfg.MailFromName,
		})
	case config.MailProviderLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}
