package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/Prashanth1609/studyhub/internal/api"
	"github.com/Prashanth1609/studyhub/internal/bot"
	"github.com/Prashanth1609/studyhub/internal/config"
	"github.com/Prashanth1609/studyhub/internal/db"
	"github.com/Prashanth1609/studyhub/internal/logging"
	"github.com/Prashanth1609/studyhub/internal/memstore"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

func main() {
	l := logging.L()

	cfg, err := config.Load()
	if err != nil {
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, ServiceName: "studyhub"})
	l = logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store studyhub.Store
	if cfg.DatabaseURL != "" {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			l.Fatal().Err(err).Msg("failed to run migrations")
		}
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer database.Close()

		n, err := database.SeedSubjects(ctx, studyhub.Catalog())
		if err != nil {
			l.Fatal().Err(err).Msg("failed to seed subjects")
		}
		l.Info().Int("inserted", n).Msg("subjects seeded")
		store = database
	} else {
		l.Warn().Msg("DATABASE_URL is not set, using the in-memory store")
		store = memstore.New(studyhub.Catalog())
	}

	// Notifications go out as Discord DMs when a bot token is configured.
	var (
		session  *discordgo.Session
		notifier studyhub.Notifier = studyhub.LogNotifier{}
	)
	if cfg.DiscordToken != "" {
		session, err = bot.NewSession(cfg.DiscordToken)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to create discord session")
		}
		notifier = bot.NewDMNotifier(session)
	} else {
		l.Warn().Msg("DISCORD_TOKEN is not set, notifications are only logged")
	}

	dispatcher := studyhub.NewDispatcher(notifier, studyhub.DispatcherConfig{
		BaseURL:  cfg.WebUIBaseURL,
		Timeout:  cfg.NotifyTimeout,
		Attempts: cfg.NotifyAttempts,
	}, nil)
	svc := studyhub.NewService(store, dispatcher, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.New(cfg, svc).Start(gctx)
	})
	g.Go(func() error {
		return bot.NewReminderWorker(svc, cfg.ReminderInterval, cfg.ReminderLead).Run(gctx)
	})
	if session != nil {
		discordBot := bot.New(session, svc)
		g.Go(func() error {
			return discordBot.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("shutting down with error")
		os.Exit(1)
	}
	l.Info().Msg("shut down")
}
