package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Prashanth1609/studyhub/internal/logging"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

const feedLimit = 10

// HandleStudy answers a /study interaction.
func HandleStudy(ctx context.Context, s Responder, i *discordgo.InteractionCreate, svc *studyhub.Service, now time.Time) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		_ = respondText(s, i, "No subcommand given.")
		return
	}
	userID := invokerID(i)
	ctx = logging.WithLogger(ctx, logging.Ctx(ctx).With().
		Str(logging.FieldUserID, userID).
		Str(logging.FieldGuildID, i.GuildID).
		Logger())

	l := logging.Ctx(ctx)
	if err := deferReply(s, i); err != nil {
		l.Warn().Err(err).Msg("defer /study response")
		return
	}
	content := Reply(ctx, svc, userID, data.Options[0], now)
	if err := editReply(s, i, content); err != nil {
		l.Warn().Err(err).Msg("respond to /study")
	}
}

// Reply runs one /study subcommand and returns the message to show.
func Reply(ctx context.Context, svc *studyhub.Service, userID string, sub *discordgo.ApplicationCommandInteractionDataOption, now time.Time) string {
	if sub.Name == subFeed {
		return feedReply(ctx, svc, sub, now)
	}

	idOpt := getIntOption(sub.Options, "id")
	if idOpt == nil {
		return "Please give a session number."
	}
	id := *idOpt

	switch sub.Name {
	case subJoin:
		_, err := svc.Join(ctx, id, userID)
		return membershipReply(ctx, id, err, fmt.Sprintf("You joined session #%d.", id))
	case subLeave:
		res, err := svc.Leave(ctx, id, userID)
		ok := fmt.Sprintf("You left session #%d.", id)
		if err == nil && res.Promoted != nil {
			ok += fmt.Sprintf(" <@%s> moved up from the waitlist.", res.Promoted.UserID)
		}
		return membershipReply(ctx, id, err, ok)
	case subWaitlist:
		_, err := svc.JoinWaitlist(ctx, id, userID)
		return membershipReply(ctx, id, err, fmt.Sprintf("You are on the waitlist for session #%d. We will DM you when a spot opens.", id))
	case subUnwaitlist:
		err := svc.LeaveWaitlist(ctx, id, userID)
		return membershipReply(ctx, id, err, fmt.Sprintf("You left the waitlist for session #%d.", id))
	default:
		return "Unknown subcommand."
	}
}

func membershipReply(ctx context.Context, id int64, err error, ok string) string {
	switch {
	case err == nil:
		return ok
	case errors.Is(err, studyhub.ErrSessionNotFound):
		return fmt.Sprintf("Session #%d does not exist.", id)
	case errors.Is(err, studyhub.ErrAlreadyMember):
		return fmt.Sprintf("You are already a member of session #%d.", id)
	case errors.Is(err, studyhub.ErrSessionFull):
		return fmt.Sprintf("Session #%d is full. Use `/study waitlist id:%d` to queue for a spot.", id, id)
	case errors.Is(err, studyhub.ErrNotAMember):
		return fmt.Sprintf("You are not a member of session #%d.", id)
	case errors.Is(err, studyhub.ErrHostLeave):
		return "Hosts cannot leave their own session."
	case errors.Is(err, studyhub.ErrAlreadyWaitlisted):
		return fmt.Sprintf("You are already on the waitlist for session #%d.", id)
	case errors.Is(err, studyhub.ErrSessionHasSpots):
		return fmt.Sprintf("Session #%d still has open spots. Use `/study join id:%d`.", id, id)
	case errors.Is(err, studyhub.ErrNotWaitlisted):
		return fmt.Sprintf("You are not on the waitlist for session #%d.", id)
	default:
		l := logging.Ctx(ctx)
		l.Error().Err(err).Int64(logging.FieldSessionID, id).Msg("study command failed")
		return "Something went wrong. Please try again later."
	}
}

func feedReply(ctx context.Context, svc *studyhub.Service, sub *discordgo.ApplicationCommandInteractionDataOption, now time.Time) string {
	page, err := svc.Feed(ctx, now, studyhub.FeedQuery{
		Text:  stringOr(getStringOption(sub.Options, "q"), ""),
		Range: studyhub.ParseDateRange(stringOr(getStringOption(sub.Options, "range"), "")),
		Type:  studyhub.ParseSessionType(stringOr(getStringOption(sub.Options, "type"), "")),
	})
	if err != nil {
		l := logging.Ctx(ctx)
		l.Error().Err(err).Msg("load feed")
		return "Something went wrong. Please try again later."
	}
	if len(page.Items) == 0 {
		return "No upcoming sessions match."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d upcoming, %d today:\n", len(page.Items), page.UpcomingToday)
	for n, item := range page.Items {
		if n == feedLimit {
			fmt.Fprintf(&b, "…and %d more", len(page.Items)-feedLimit)
			break
		}
		b.WriteString(FormatItem(item))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatItem renders one feed line, e.g.
// "#3 **Algebra** · Mon Mar 10 18:00 UTC · Library - Room 204".
func FormatItem(item studyhub.FeedItem) string {
	s := item.Session
	line := fmt.Sprintf("#%d **%s** · %s · %s", s.ID, s.Title, item.DisplayStart.Format("Mon Jan 2 15:04 MST"), s.Place())
	if s.Recurs() {
		line += fmt.Sprintf(" · repeats %s", s.Recurrence)
	}
	return line
}
