package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordMaxMessage is Discord's limit on message content length.
const discordMaxMessage = 2000

type dmSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DMNotifier delivers notifications as Discord direct messages. Recipients are
// Discord user ids.
type DMNotifier struct {
	session dmSession
}

func NewDMNotifier(session *discordgo.Session) *DMNotifier {
	return &DMNotifier{session: session}
}

func (n *DMNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	ch, err := n.session.UserChannelCreate(recipient, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	if _, err := n.session.ChannelMessageSend(ch.ID, formatDM(subject, body), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

func formatDM(subject, body string) string {
	content := fmt.Sprintf("**%s**\n\n%s", subject, body)
	if r := []rune(content); len(r) > discordMaxMessage {
		content = string(r[:discordMaxMessage-1]) + "…"
	}
	return content
}
