package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/Prashanth1609/studyhub/internal/commands"
	"github.com/Prashanth1609/studyhub/internal/logging"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	l := logging.L()
	l.Info().Str("username", event.User.Username).Msg("connected to discord")

	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(guild.ID); err != nil {
			l.Error().Err(err).Str(logging.FieldGuildID, guild.ID).Msg("failed to register commands")
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	l := logging.L()
	l.Info().Str(logging.FieldGuildID, event.ID).Str("guild", event.Name).Msg("guild available, ensuring commands")
	if err := b.registerGuildCommands(event.ID); err != nil {
		l.Error().Err(err).Str(logging.FieldGuildID, event.ID).Msg("failed to register commands")
	}
}

func (b *Bot) registerGuildCommands(guildID string) error {
	// Overwrite replaces whatever was registered before.
	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, commands.GetCommands())
	if err != nil {
		return err
	}
	l := logging.L()
	l.Debug().Str(logging.FieldGuildID, guildID).Msg("registered application commands")
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.handleApplicationCommand(context.Background(), s, i)
}

func (b *Bot) handleApplicationCommand(ctx context.Context, s commands.Responder, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case commands.CommandStudy:
		commands.HandleStudy(ctx, s, i, b.svc, b.now())
	}
}
