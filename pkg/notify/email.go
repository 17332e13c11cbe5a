package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

// Email sends alerts as plain text mail through an authenticated SMTP server using STARTTLS.
type Email struct {
	From   string
	dialer *gomail.Dialer
}

func NewEmail(host string, port int, user, password string) *Email {
	return &Email{
		From:   user,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

func (e *Email) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return dispatchError("email", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.From)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := e.dialer.DialAndSend(m); err != nil {
		return dispatchError("email", err)
	}
	return nil
}
