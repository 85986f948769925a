package services

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/busticket/busticket_backend/models"
)

// MailDialer is satisfied by *gomail.Dialer.
type MailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	dialer MailDialer
	from   string
}

func NewEmailSender(dialer MailDialer, from string) *EmailSender {
	return &EmailSender{dialer: dialer, from: from}
}

func (s *EmailSender) Channel() models.Channel { return models.ChannelEmail }

func (s *EmailSender) Send(_ context.Context, user *models.User, n *models.Notification) error {
	if user.Email == "" {
		return errors.New("recipient has no email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/plain", emailBody(user, n))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func emailBody(user *models.User, n *models.Notification) string {
	name := user.Name
	if name == "" {
		name = "traveller"
	}
	return fmt.Sprintf("Hi %s,\n\n%s\n\nThank you for choosing us!", name, n.Message)
}
