package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockSentinel/internal/recorder"
	"StockSentinel/internal/retry"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailTransport delivers prepared messages. *mail.Client satisfies it.
type MailTransport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends the digest to every address of the subscriber list.
type Mailer struct {
	From        string
	Transport   MailTransport
	Subscribers recorder.ListStore
	Retry       retry.Policy
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewMailer creates a Mailer backed by an SMTP client using STARTTLS and PLAIN auth.
func NewMailer(cfg SMTPConfig, subscribers recorder.ListStore, logger *zap.Logger) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &Mailer{
		From:        cfg.From,
		Transport:   client,
		Subscribers: subscribers,
		Retry:       retry.DefaultPolicy,
		Logger:      logger,
		Now:         time.Now,
	}, nil
}

// Subject returns the digest subject line for t.
func Subject(t time.Time) string {
	return "Stock Price Alerts - " + t.Format("2006-01-02 15:04:05")
}

// SendDigest mails body to all subscribers and returns how many messages were sent.
// Each subscriber is retried on its own; on error the count covers the deliveries
// that did succeed. An empty subscriber list is not an error.
func (m *Mailer) SendDigest(ctx context.Context, body string) (int, error) {
	var entries []recorder.Entry
	err := retry.Do(ctx, m.Retry, func() error {
		var err error
		entries, err = m.Subscribers.List(ctx, recorder.ListSubscribers)
		return err
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("load subscribers: %w", err)
	}
	if len(entries) == 0 {
		m.Logger.Info("no subscribers, digest not sent")
		return 0, nil
	}

	subject := Subject(m.Now())
	msgs := make([]*mail.Msg, 0, len(entries))
	for _, e := range entries {
		msg := mail.NewMsg()
		if err := msg.From(m.From); err != nil {
			return 0, fmt.Errorf("sender %q: %w", m.From, err)
		}
		if err := msg.To(e.Value); err != nil {
			m.Logger.Warn("skipping invalid subscriber address", zap.String("email", e.Value), zap.Error(err))
			continue
		}
		msg.Subject(subject)
		msg.SetBodyString(mail.TypeTextHTML, body)
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	// One message per call: a retry must never reach a subscriber that was already served.
	sent := 0
	var failed []error
	for _, msg := range msgs {
		err := retry.Do(ctx, m.Retry, func() error {
			return m.Transport.DialAndSendWithContext(ctx, msg)
		}, func(err error, wait time.Duration) {
			m.Logger.Warn("smtp send failed, retrying", zap.Strings("to", msg.GetToString()),
				zap.Duration("wait", wait), zap.Error(err))
		})
		if err != nil {
			m.Logger.Error("digest not delivered", zap.Strings("to", msg.GetToString()), zap.Error(err))
			failed = append(failed, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		sent++
	}
	if len(failed) > 0 {
		return sent, fmt.Errorf("send digest: %d of %d failed: %w", len(msgs)-sent, len(msgs), errors.Join(failed...))
	}
	m.Logger.Info("digest sent", zap.Int("recipients", sent))
	return sent, nil
}
