package services

import (
	"fmt"
	"strconv"

	"github.com/itsmessk/infoziant-courses/config"

	"gopkg.in/gomail.v2"
)

// Mailer sends mail over SMTP using injected credentials.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewMailer(cfg *config.Config) *Mailer {
	port := 587
	if p, err := strconv.Atoi(cfg.SMTPPort); err == nil {
		port = p
	}

	from := cfg.EmailFrom
	if from == "" {
		from = cfg.SMTPUser
	}

	return &Mailer{
		host: cfg.SMTPHost,
		port: port,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: from,
	}
}

// Send delivers one HTML email, with an optional file attachment.
func (m *Mailer) Send(to, subject, body string, attachment ...string) error {
	if m.from == "" {
		return fmt.Errorf("email sender not configured (set EMAIL_FROM or SMTP_USER)")
	}
	if m.user == "" || m.pass == "" {
		return fmt.Errorf("smtp credentials not configured (set SMTP_USER and SMTP_PASS)")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%q <%s>", "Virtual Training Academy", m.from))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if len(attachment) > 0 && attachment[0] != "" {
		msg.Attach(attachment[0])
	}

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
