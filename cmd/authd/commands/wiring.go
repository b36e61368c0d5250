package commands

import (
	"context"
	"fmt"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/goliatone/go-auth-jwt/activitymap"
	"github.com/goliatone/go-auth-jwt/config"
	"github.com/goliatone/go-auth-jwt/notify"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

type runtime struct {
	opts   *config.Options
	log    *logrus.Logger
	logger auth.Logger
}

func load(configPath string) (*runtime, error) {
	opts, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return &runtime{opts: opts, log: log, logger: auth.NewLogrusLogger(log, "authd")}, nil
}

func (r *runtime) named(name string) auth.Logger {
	return auth.NewLogrusLogger(r.log, name)
}

func (r *runtime) openDB() (*bun.DB, error) {
	db, err := auth.OpenDB(r.opts.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

func (r *runtime) openRedis() (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(r.opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(redisOpts), nil
}

func (r *runtime) tokens() (*auth.TokenService, auth.TokenValidator, error) {
	tc, err := config.BuildTokenConfig(r.opts)
	if err != nil {
		return nil, nil, err
	}
	ts, err := auth.NewTokenService(tc, auth.WithTokenLogger(r.named("tokens")))
	if err != nil {
		return nil, nil, err
	}
	validator, err := config.BuildValidator(r.opts, ts)
	if err != nil {
		return nil, nil, err
	}
	return ts, validator, nil
}

func (r *runtime) sender() (notify.Sender, error) {
	mail := r.opts.Mail
	switch mail.Provider {
	case config.MailProviderMailgun:
		return notify.NewMailgunSender(notify.MailgunConfig{
			Key:    mail.Mailgun.Key,
			Domain: mail.Mailgun.Domain,
			From:   mail.From,
		})
	case config.MailProviderSendGrid:
		return notify.NewSendGridSender(notify.SendGridConfig{
			Key:      mail.SendGrid.Key,
			From:     mail.From,
			FromName: mail.FromName,
		})
	case config.MailProviderSMTP:
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:     mail.SMTP.Host,
			Port:     mail.SMTP.Port,
			Username: mail.SMTP.Username,
			Password: mail.SMTP.Password,
			From:     mail.From,
		})
	case config.MailProviderLog, "":
		return notify.LogSender{Logger: r.named("mail")}, nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", mail.Provider)
}

func (r *runtime) mailer() (*notify.Mailer, error) {
	sender, err := r.sender()
	if err != nil {
		return nil, err
	}
	renderer, err := notify.NewRenderer(r.opts.BaseURL, r.opts.Mail.Subject,
		notify.WithTemplateDir(r.opts.Mail.TemplatesDir),
	)
	if err != nil {
		return nil, err
	}
	return notify.NewMailer(renderer, sender, r.named("mail")), nil
}

func (r *runtime) activitySink() auth.ActivitySink {
	logger := r.named("activity")
	return activitymap.Sink(func(n activitymap.Normalized) error {
		logger.Info(n.Verb,
			"actor_id", n.ActorID,
			"channel", n.Channel,
			"metadata", n.Metadata,
			"occurred_at", n.OccurredAt,
		)
		return nil
	})
}
