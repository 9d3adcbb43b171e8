package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Prashanth1609/studyhub/internal/logging"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

type Bot struct {
	session *discordgo.Session
	svc     *studyhub.Service
	now     func() time.Time
}

// NewSession creates the Discord session the bot and its DM notifier share.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
	return session, nil
}

func New(session *discordgo.Session, svc *studyhub.Service) *Bot {
	bot := &Bot{
		session: session,
		svc:     svc,
		now:     time.Now,
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onInteractionCreate)

	return bot
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	l := logging.L()
	l.Info().Msg("discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

// Run starts the bot and closes it when ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return b.Stop()
}
