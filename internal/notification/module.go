// Package notification sends internal email alerts in response to domain
// events. The projects module publishes events without knowing about SMTP;
// this module subscribes and delivers.
package notification

import (
	"context"
	"fmt"
	"net"
	"time"

	"greenviz_backend/internal/events"
	"greenviz_backend/platform/config"
	"greenviz_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers a single notification email.
type Sender interface {
	SendLeadCapturedEmail(ctx context.Context, toEmail, leadEmail, projectID, source string) error
}

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendLeadCapturedEmail notifies the sales inbox about a fresh lead.
func (s *SMTPSender) SendLeadCapturedEmail(ctx context.Context, toEmail, leadEmail, projectID, source string) error {
	if source == "" {
		source = "direct"
	}
	body := fmt.Sprintf(
		"A visitor unlocked their visualization.\n\nEmail: %s\nProject: %s\nSource: %s\n\nFollow up while the interest is warm.",
		leadEmail, projectID, source,
	)
	return s.send(ctx, toEmail, "New lead: "+leadEmail, body)
}

// Module wires the event subscriptions to the sender.
type Module struct {
	sender Sender
	to     string
	log    *logger.Logger
}

// NewModule creates the notification module and subscribes it to the bus.
// When SMTP is not configured, the module is inert and events are ignored.
func NewModule(bus events.Bus, cfg config.NotificationConfig, log *logger.Logger) *Module {
	m := &Module{log: log}

	if cfg.IsNotifyEnabled() {
		m.sender = NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetNotifyFromAddress(),
			cfg.GetNotifyFromName(),
		)
		m.to = cfg.GetNotifyToAddress()
	} else {
		log.Warn("SMTP not configured; lead notifications disabled")
	}

	bus.Subscribe(events.LeadCaptured{}.EventName(), events.HandlerFunc(m.handleLeadCaptured))

	return m
}

func (m *Module) handleLeadCaptured(ctx context.Context, event events.Event) error {
	if m.sender == nil || m.to == "" {
		return nil
	}

	e, ok := event.(events.LeadCaptured)
	if !ok {
		return nil
	}

	if err := m.sender.SendLeadCapturedEmail(ctx, m.to, e.Email, e.ProjectID.String(), e.Source); err != nil {
		m.log.Error("lead notification failed", "error", err, "project_id", e.ProjectID)
		return err
	}

	m.log.Info("lead notification sent", "project_id", e.ProjectID)
	return nil
}
