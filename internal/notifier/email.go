package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/wneessen/go-mail"
)

const implicitTLSPort = 465

// EmailConfig holds the SMTP transport settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// mailSender is the part of *mail.Client the notifier needs.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Email sends the report as a multipart (text + HTML) message to all recipients.
type Email struct {
	log    *slog.Logger
	sender mailSender
	from   string
	to     []string
}

// NewEmail creates an SMTP notifier. STARTTLS is mandatory unless the port uses implicit TLS.
func NewEmail(log *slog.Logger, cfg EmailConfig) (*Email, error) {
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("email notifier needs at least one recipient")
	}

	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}
	if cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	opts = append(opts, mail.WithPort(cfg.Port))
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client for %s: %w", cfg.Host, err)
	}

	return newEmail(log, client, cfg.From, cfg.To), nil
}

func newEmail(log *slog.Logger, sender mailSender, from string, to []string) *Email {
	return &Email{log: log, sender: sender, from: from, to: to}
}

// Notify implements Notifier.
func (e *Email) Notify(ctx context.Context, report models.Report) error {
	const opn = "notifier.Email.Notify"

	msg, err := e.message(report)
	if err != nil {
		return errs.Mark(fmt.Errorf("%s: failed to build message: %w", opn, err), errs.ErrDelivery)
	}

	if err = e.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return errs.Mark(fmt.Errorf("%s: failed to send email: %w", opn, err), errs.ErrDelivery)
	}

	e.log.InfoContext(ctx, "Email sent", "op", opn, "recipients", len(e.to), "subject", report.Subject)

	return nil
}

func (e *Email) message(report models.Report) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(e.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", e.from, err)
	}
	if err := msg.To(e.to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(report.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, report.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, report.HTML)

	return msg, nil
}
