package mailingservices

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// Mailer is what the signup flow needs from a mail provider. A nil Mailer is
// tolerated; mail failures never fail a signup.
type Mailer interface {
	SendWelcomeMessage(recipient string, subject string) (string, error)
}

type Mailgun struct {
	Client *mailgun.MailgunImpl
	From   string
}

func (m *Mailgun) Init() {
	domain := os.Getenv("DUOCHAT_MG_DOMAIN")
	apiKey := os.Getenv("DUOCHAT_MG_PUBLIC_API_KEY")
	m.From = os.Getenv("DUOCHAT_EMAIL_FROM")
	if domain == "" || apiKey == "" {
		log.Println("mailgun credentials not set, welcome emails disabled")
		return
	}
	m.Client = mailgun.NewMailgun(domain, apiKey)
}

func (m *Mailgun) SendWelcomeMessage(recipient string, subject string) (string, error) {
	if m.Client == nil {
		return "", nil
	}

	body := "Welcome to duochat! Sign in and start a conversation."
	message := m.Client.NewMessage(m.From, subject, body, recipient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, id, err := m.Client.Send(ctx, message)
	if err != nil {
		return "", err
	}
	return id, nil
}
