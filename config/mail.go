package config

import (
	"gopkg.in/gomail.v2"
)

// NewMailDialer returns the SMTP dialer for the email channel, or nil when
// SMTP_HOST is unset.
func NewMailDialer(cfg Config) *gomail.Dialer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
}
