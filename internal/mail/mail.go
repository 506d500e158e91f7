// Package mail renders transactional emails and delivers them over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/dejobratic/cafe/internal/outbox"
)

var ErrNoRecipient = errors.New("mail recipient is required")

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers messages through an SMTP relay, dialing per message.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender records messages in the log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail delivery skipped",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// Request is the outbox payload for the mail sink.
type Request struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// NewEvent addresses a templated email to the mail sink.
func NewEvent(eventType, aggregateID string, req Request) (outbox.Event, error) {
	return outbox.NewEvent(outbox.SinkMail, eventType, aggregateID, req)
}

// Handler renders mail sink events and passes them to a Sender.
type Handler struct {
	sender    Sender
	templates *Templates
}

func NewHandler(sender Sender, templates *Templates) *Handler {
	return &Handler{sender: sender, templates: templates}
}

func (h *Handler) Handle(ctx context.Context, event outbox.Event) error {
	var req Request
	if err := event.Decode(&req); err != nil {
		return err
	}
	if req.To == "" {
		return ErrNoRecipient
	}

	subject, body, err := h.templates.Render(req.Template, req.Data)
	if err != nil {
		return err
	}

	return h.sender.Send(ctx, Message{To: req.To, Subject: subject, HTML: body})
}
