package services

import (
	"strings"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/logger"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// EmailSender delivers one message to many recipients and reports whether
// it went out. Failures are logged by the sender, never returned.
type EmailSender interface {
	Send(to []string, subject, htmlBody string) bool
}

// Mailer sends alert emails over SMTP.
type Mailer struct {
	cfg  config.SMTPConfig
	send func(*gomail.Message) error
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	if cfg.Enabled() {
		dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
		m.send = func(msg *gomail.Message) error {
			return dialer.DialAndSend(msg)
		}
	}
	return m
}

// Enabled reports whether SMTP is configured.
func (m *Mailer) Enabled() bool {
	return m.send != nil
}

func (m *Mailer) Send(to []string, subject, htmlBody string) bool {
	if !m.Enabled() {
		logger.Warn("⚠️ SMTP not configured, email not sent", zap.String("subject", subject))
		return false
	}
	if len(to) == 0 {
		return false
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", HTMLToText(htmlBody))
	msg.AddAlternative("text/html", htmlBody)

	if err := m.send(msg); err != nil {
		logger.Error("❌ Failed to send email", zap.String("subject", subject), zap.Error(err))
		return false
	}

	logger.Info("📧 Email sent", zap.Int("recipients", len(to)), zap.String("subject", subject))
	return true
}

// HTMLToText flattens an email body into one line per heading, paragraph
// or list item.
func HTMLToText(htmlBody string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return htmlBody
	}

	var lines []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		if line := strings.Join(strings.Fields(s.Text()), " "); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " ")
	}
	return strings.Join(lines, "\n")
}
