package config

import (
	"github.com/spf13/viper"
)

// Mail providers
const (
	MailProviderLog      = "log"
	MailProviderSMTP     = "smtp"
	MailProviderMailgun  = "mailgun"
	MailProviderSendGrid = "sendgrid"
)

// Mail holds activation email delivery settings
type Mail struct {
	Provider string
	From     string
	FromName string
	Subject  string
	Mailgun  *MailgunConfig
	SendGrid *SendGridConfig
	SMTP     *SMTPConfig

	// TemplatesDir overrides the embedded activation templates when set.
	TemplatesDir string

	// Async selects the in-process dispatcher instead of the redis queue.
	Async      bool
	BufferSize int
}

// MailgunConfig holds the configuration for Mailgun
type MailgunConfig struct {
	Key    string
	Domain string
}

// SendGridConfig holds the configuration for SendGrid
type SendGridConfig struct {
	Key string
}

// SMTPConfig holds the configuration for SMTP
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

func setMailDefaults(v *viper.Viper) {
	v.SetDefault("mail.provider", MailProviderLog)
	v.SetDefault("mail.from", "no-reply@localhost")
	v.SetDefault("mail.from_name", "")
	v.SetDefault("mail.subject", "")
	v.SetDefault("mail.templates_dir", "")
	v.SetDefault("mail.async", false)
	v.SetDefault("mail.buffer_size", 64)
	v.SetDefault("mail.mailgun.key", "")
	v.SetDefault("mail.mailgun.domain", "")
	v.SetDefault("mail.sendgrid.key", "")
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", "587")
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
}

func getMailConfig(v *viper.Viper) *Mail {
	return &Mail{
		Provider:     v.GetString("mail.provider"),
		From:         v.GetString("mail.from"),
		FromName:     v.GetString("mail.from_name"),
		Subject:      v.GetString("mail.subject"),
		TemplatesDir: v.GetString("mail.templates_dir"),
		Async:        v.GetBool("mail.async"),
		BufferSize:   v.GetInt("mail.buffer_size"),
		Mailgun: &MailgunConfig{
			Key:    v.GetString("mail.mailgun.key"),
			Domain: v.GetString("mail.mailgun.domain"),
		},
		SendGrid: &SendGridConfig{
			Key: v.GetString("mail.sendgrid.key"),
		},
		SMTP: &SMTPConfig{
			Host:     v.GetString("mail.smtp.host"),
			Port:     v.GetString("mail.smtp.port"),
			Username: v.GetString("mail.smtp.username"),
			Password: v.GetString("mail.smtp.password"),
		},
	}
}
