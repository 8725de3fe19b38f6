package smtp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/bafnalights-dot/stock/internal/model"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type mailer struct {
	cfg  Config
	now  func() time.Time
	send func(ctx context.Context, msg *gomail.Msg) error
}

func NewMailer(cfg Config) *mailer {
	m := &mailer{cfg: cfg, now: time.Now}
	m.send = m.dialAndSend
	return m
}

func (m *mailer) Send(ctx context.Context, mail model.Mail) error {
	msg, err := m.build(mail)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("send to %s:%d: %w", m.cfg.Host, m.cfg.Port, err)
	}
	return nil
}

// build renders mail as a plain-text body with the attachments appended.
func (m *mailer) build(mail model.Mail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(mail.To...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(mail.Subject)
	msg.SetDateWithValue(m.now())
	msg.SetBodyString(gomail.TypeTextPlain, mail.Body)

	for _, a := range mail.Attachments {
		err := msg.AttachReader(a.Filename, bytes.NewReader(a.Content),
			gomail.WithFileContentType(gomail.ContentType(a.ContentType)))
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return msg, nil
}

func (m *mailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(m.cfg.Timeout))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
