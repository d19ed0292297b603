package services

import (
	"errors"
	"testing"

	"tronik-dashboard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestMailer_DisabledWithoutHost(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})
	assert.False(t, m.Enabled())
	assert.False(t, m.Send([]string{"a@example.com"}, "s", "<p>b</p>"))
}

func TestMailer_SendBuildsMessage(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "alertas@example.com"})
	require.True(t, m.Enabled())

	var sent *gomail.Message
	m.send = func(msg *gomail.Message) error {
		sent = msg
		return nil
	}

	assert.False(t, m.Send(nil, "s", "<p>b</p>"))
	assert.Nil(t, sent)

	assert.True(t, m.Send([]string{"a@example.com", "b@example.com"}, "Alerta", "<p>corpo</p>"))
	require.NotNil(t, sent)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, sent.GetHeader("To"))
	assert.Equal(t, []string{"Alerta"}, sent.GetHeader("Subject"))
	assert.Equal(t, []string{"alertas@example.com"}, sent.GetHeader("From"))
}

func TestMailer_SendFailureReturnsFalse(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "smtp.example.com", From: "x@example.com"})
	m.send = func(*gomail.Message) error { return errors.New("connection refused") }
	assert.False(t, m.Send([]string{"a@example.com"}, "s", "<p>b</p>"))
}

func TestHTMLToText(t *testing.T) {
	body := `<html><body>
<h2>⚠️ Alerta: Lixeira com Nível Alto</h2>
<p><strong>Lixeira:</strong> Praça   Central</p>
<p></p>
<p>Dashboard-TRONIK</p>
</body></html>`
	assert.Equal(t, "⚠️ Alerta: Lixeira com Nível Alto\nLixeira: Praça Central\nDashboard-TRONIK", HTMLToText(body))
	assert.Equal(t, "texto simples", HTMLToText("texto   simples"))
}
