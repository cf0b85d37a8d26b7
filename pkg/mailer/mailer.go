package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Mailer sends a single transactional email. Callers bound it with ctx.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer is used when email delivery is disabled.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email delivery disabled, message not sent")
	return nil
}
