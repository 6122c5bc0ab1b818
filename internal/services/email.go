package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/traxaero/interfaces/internal/config"
	"github.com/traxaero/interfaces/pkg/logger"
)

// Notification is one outgoing alert email.
type Notification struct {
	Subject    string
	Body       string
	Recipients []string
}

// Notifier delivers notifications. EmailService is the production
// implementation.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

type EmailService struct {
	cfg *config.SMTPConfig
}

func NewEmailService(cfg *config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Notify sends n. Disabled SMTP or an empty recipient list is a no-op.
func (s *EmailService) Notify(_ context.Context, n *Notification) error {
	if s.cfg == nil || !s.cfg.Enabled || s.cfg.Host == "" {
		logger.Debug().Str("subject", n.Subject).Msg("[Email] SMTP disabled, notification dropped")
		return nil
	}
	if len(n.Recipients) == 0 {
		return nil
	}
	return s.sendEmail(n.Recipients, n.Subject, n.Body)
}

// BuildIssueNotification renders the standard "<name> has encountered an
// issue" body. header carries the reference line (SEQ NO, OID, file).
func BuildIssueNotification(subject, name, header string, report *RunReport, recipients []string) *Notification {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteString(" has encountered an issue.\n")
	if header != "" {
		sb.WriteString(header)
		sb.WriteString("\n")
	}
	sb.WriteString("\nIssues found at:\n")
	sb.WriteString(report.Summary())

	return &Notification{
		Subject:    subject,
		Body:       sb.String(),
		Recipients: recipients,
	}
}

func (s *EmailService) buildMessage(from string, to []string, subject, body string) string {
	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(to, ",")},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}

	var message strings.Builder
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}

func (s *EmailService) sendEmail(to []string, subject, body string) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	message := s.buildMessage(from, to, subject, body)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var err error
	if s.cfg.UseTLS {
		err = s.sendEmailTLS(addr, auth, from, to, message)
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message))
	}

	if err != nil {
		logger.Errorf("[Email] Failed to send %q: %v", subject, err)
		return err
	}

	logger.Infof("[Email] Sent %q to %v", subject, to)
	return nil
}

func (s *EmailService) sendEmailTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err = w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}
