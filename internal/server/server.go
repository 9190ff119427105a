package server

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sfwcore/herobot/internal/api"
	"github.com/sfwcore/herobot/internal/bot"
	"github.com/sfwcore/herobot/internal/config"
	"github.com/sfwcore/herobot/internal/github"
	"github.com/sfwcore/herobot/internal/heroku"
	"github.com/sfwcore/herobot/internal/model"
	"github.com/sfwcore/herobot/internal/notifications"
	"github.com/sfwcore/herobot/internal/storage/postgresql"
	"github.com/sfwcore/herobot/internal/storage/sqlite"
	"github.com/sfwcore/herobot/internal/wizard"
	"github.com/sfwcore/herobot/pkg/utils"
)

const (
	defaultSessionTTL     = 30 * time.Minute
	defaultReapInterval   = 1 * time.Minute
	defaultRequestTimeout = 15 * time.Second
)

func Run() error {
	var err error
	var wg sync.WaitGroup

	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Errorf("Error reading configuration: %v", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer cancel()

	var st model.Repository
	if cfg.SQLite.DatabaseFolder != "" {
		st, err = sqlite.New(cfg.SQLite.DatabaseFolder)
		if err == nil {
			log.Infof(
				"Successfully connected to SQLite database, folder: %s",
				cfg.SQLite.DatabaseFolder,
			)
		}
	} else if cfg.Postgresql.Host != "" {
		st, err = postgresql.New(
			cfg.Postgresql.Host,
			cfg.Postgresql.Port,
			cfg.Postgresql.Username,
			cfg.Postgresql.Password,
			cfg.Postgresql.Database,
		)
		if err == nil {
			log.Infof(
				"Successfully connected to PostgreSQL database, server: %s:%d, database: %s",
				cfg.Postgresql.Host,
				cfg.Postgresql.Port,
				cfg.Postgresql.Database,
			)
		}
	}
	if err != nil {
		log.Errorf("Error creating storage: %v", err)
		return err
	}

	if st == nil {
		log.Errorf("Check storage configuration settings")
		return err
	}

	defer func() {
		if err := st.Close(); err != nil {
			log.Errorf("Error closing storage: %v", err)
		}
	}()

	sessionTTL, err := utils.ParseDurationOrDefault(
		cfg.SessionTTL, defaultSessionTTL,
	)
	if err != nil {
		log.Errorf("Error parsing session ttl: %v", err)
		return err
	}

	reapInterval, err := utils.ParseDurationOrDefault(
		cfg.ReapInterval, defaultReapInterval,
	)
	if err != nil {
		log.Errorf("Error parsing reap interval: %v", err)
		return err
	}

	requestTimeout, err := utils.ParseDurationOrDefault(
		cfg.RequestTimeout, defaultRequestTimeout,
	)
	if err != nil {
		log.Errorf("Error parsing request timeout: %v", err)
		return err
	}

	nt := notifications.New(
		&notifications.SlackConfig{
			Enabled:      cfg.Notifications.Slack.Enabled,
			WebhookURL:   cfg.Notifications.Slack.WebhookURL,
			SenderName:   cfg.Notifications.Slack.SenderName,
			AdminChannel: cfg.Notifications.Slack.AdminChannel,
		},
		&notifications.EmailConfig{
			Enabled:           cfg.Notifications.Email.Enabled,
			SMTPServerAddress: cfg.Notifications.Email.SMTPServerAddress,
			SMTPServerPort:    cfg.Notifications.Email.SMTPServerPort,
			Username:          cfg.Notifications.Email.Username,
			Password:          cfg.Notifications.Email.Password,
			SenderEmail:       cfg.Notifications.Email.SenderEmail,
			AdminEmail:        cfg.Notifications.Email.AdminEmail,
		},
	)

	platform := heroku.New(cfg.Heroku.APIURL, requestTimeout)
	source := github.NewClient(cfg.GitHub.Token)

	wiz := wizard.New(st, platform, source, nt, sessionTTL, requestTimeout)

	wg.Add(1)
	go func() {
		defer wg.Done()
		wiz.RunReaper(ctx, reapInterval)
	}()

	a := api.New(cfg, st)
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Run(ctx)
	}()

	b, err := bot.New(
		cfg.TelegramToken,
		st,
		platform,
		wiz,
		requestTimeout,
		cfg.SupportGroup,
	)
	if err != nil {
		log.Errorf("Error creating bot: %v", err)
		cancel()
		wg.Wait()
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Run(ctx)
	}()

	wg.Wait()

	log.Info("Herobot shut down gracefully")
	return nil
}
