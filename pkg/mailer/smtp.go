package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/eshikshan/config"

	"github.com/wneessen/go-mail"
)

const implicitTLSPort = 465

type SMTPMailer struct {
	from     string
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func NewSMTPMailer(cfg *config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		from:     cfg.From,
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		timeout:  cfg.Timeout,
	}
}

// Send dials, delivers and hangs up; ctx bounds the whole exchange.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	message, err := buildMessage(m.from, msg, time.Now())
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to configure smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// clientOptions uses implicit TLS on 465 and STARTTLS when offered elsewhere.
func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(m.port)}

	if m.port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.timeout))
	}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}
	return opts
}

func buildMessage(from string, msg Message, now time.Time) (*mail.Msg, error) {
	message := mail.NewMsg()

	if err := message.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := message.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	message.Subject(msg.Subject)
	message.SetDateWithValue(now)
	message.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	return message, nil
}
