package commands

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/Prashanth1609/studyhub/internal/memstore"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) *studyhub.Service {
	t.Helper()
	clock := func() time.Time { return now }
	store := memstore.New(studyhub.Catalog())
	return studyhub.NewService(store, studyhub.NewDispatcher(studyhub.LogNotifier{}, studyhub.DispatcherConfig{}, clock), clock)
}

func createSession(t *testing.T, svc *studyhub.Service, owner, title string, capacity int) int64 {
	t.Helper()
	s, err := svc.CreateSession(context.Background(), studyhub.Actor{UserID: owner, Role: studyhub.UserStudent}, studyhub.SessionInput{
		Title:        title,
		StartTime:    now.Add(9 * time.Hour),
		LocationText: "Library",
		Capacity:     capacity,
	})
	require.NoError(t, err)
	return s.ID
}

func sub(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: opts,
	}
}

func idOpt(id int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "id",
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(id),
	}
}

func strOpt(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: v,
	}
}

func TestReplyMembership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newService(t)
	id := createSession(t, svc, "host", "Algebra", 2)

	req.Equal("You joined session #1.", Reply(ctx, svc, "bob", sub(subJoin, idOpt(id)), now))
	req.Equal("You are already a member of session #1.", Reply(ctx, svc, "bob", sub(subJoin, idOpt(id)), now))
	req.Contains(Reply(ctx, svc, "carol", sub(subJoin, idOpt(id)), now), "is full")
	req.Contains(Reply(ctx, svc, "carol", sub(subWaitlist, idOpt(id)), now), "on the waitlist")
	req.Contains(Reply(ctx, svc, "carol", sub(subWaitlist, idOpt(id)), now), "already on the waitlist")

	req.Equal("You left session #1. <@carol> moved up from the waitlist.", Reply(ctx, svc, "bob", sub(subLeave, idOpt(id)), now))
	req.Equal("You are not a member of session #1.", Reply(ctx, svc, "bob", sub(subLeave, idOpt(id)), now))
	req.Equal("Hosts cannot leave their own session.", Reply(ctx, svc, "host", sub(subLeave, idOpt(id)), now))
	req.Equal("You are not on the waitlist for session #1.", Reply(ctx, svc, "bob", sub(subUnwaitlist, idOpt(id)), now))
	req.Equal("Session #99 does not exist.", Reply(ctx, svc, "bob", sub(subJoin, idOpt(99)), now))
	req.Equal("Please give a session number.", Reply(ctx, svc, "bob", sub(subJoin), now))
}

func TestReplyWaitlistWithSpots(t *testing.T) {
	svc := newService(t)
	id := createSession(t, svc, "host", "Physics", 5)
	require.Contains(t, Reply(context.Background(), svc, "bob", sub(subWaitlist, idOpt(id)), now), "still has open spots")
}

func TestReplyFeed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newService(t)

	req.Equal("No upcoming sessions match.", Reply(ctx, svc, "bob", sub(subFeed), now))

	createSession(t, svc, "host", "Algebra", 4)
	createSession(t, svc, "host", "Biology", 4)

	out := Reply(ctx, svc, "bob", sub(subFeed, strOpt("range", "today")), now)
	req.Contains(out, "2 upcoming, 2 today:")
	req.Contains(out, "#1 **Algebra** · Mon Mar 10 18:00 UTC · Library")
	req.Contains(out, "#2 **Biology**")

	out = Reply(ctx, svc, "bob", sub(subFeed, strOpt("q", "bio")), now)
	req.NotContains(out, "Algebra")
	req.Contains(out, "Biology")

	out = Reply(ctx, svc, "bob", sub(subFeed, strOpt("type", "virtual")), now)
	req.Equal("No upcoming sessions match.", out)
}

func TestFormatItemRecurring(t *testing.T) {
	item := studyhub.FeedItem{
		Session: &studyhub.Session{
			ID: 4, Title: "Review", IsVirtual: true, IsRecurring: true,
			Recurrence: studyhub.RecurrenceWeekly, Interval: 1,
		},
		DisplayStart: time.Date(2025, 3, 17, 18, 0, 0, 0, time.UTC),
	}
	require.Equal(t, "#4 **Review** · Mon Mar 17 18:00 UTC · Virtual · repeats weekly", FormatItem(item))
}

type fakeResponder struct {
	calls []string
	got   []*discordgo.InteractionResponse
	edits []string
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.calls = append(f.calls, "respond")
	f.got = append(f.got, resp)
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.calls = append(f.calls, "edit")
	f.edits = append(f.edits, *edit.Content)
	return &discordgo.Message{Content: *edit.Content}, nil
}

// recordingNotifier notes what the responder had done when each message went out.
type recordingNotifier struct {
	r      *fakeResponder
	seenAt [][]string
}

func (n *recordingNotifier) Send(_ context.Context, recipient, _, _ string) error {
	n.seenAt = append(n.seenAt, append([]string{recipient}, n.r.calls...))
	return nil
}

func studyInteraction(userID string, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "42",
		Member:  &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    CommandStudy,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{opt},
		},
	}}
}

func TestHandleStudy(t *testing.T) {
	req := require.New(t)
	svc := newService(t)
	id := createSession(t, svc, "host", "Algebra", 4)
	r := &fakeResponder{}

	HandleStudy(context.Background(), r, studyInteraction("bob", sub(subJoin, idOpt(id))), svc, now)

	req.Equal([]string{"respond", "edit"}, r.calls)
	req.Equal(discordgo.InteractionResponseDeferredChannelMessageWithSource, r.got[0].Type)
	req.Equal(discordgo.MessageFlagsEphemeral, r.got[0].Data.Flags)
	req.Equal([]string{"You joined session #1."}, r.edits)
}

func TestHandleStudyDefersBeforeNotifying(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r := &fakeResponder{}
	n := &recordingNotifier{r: r}
	clock := func() time.Time { return now }
	svc := studyhub.NewService(memstore.New(nil), studyhub.NewDispatcher(n, studyhub.DispatcherConfig{}, clock), clock)

	// Given a full session with carol queued
	id := createSession(t, svc, "host", "Algebra", 2)
	_, err := svc.Join(ctx, id, "bob")
	req.NoError(err)
	_, err = svc.JoinWaitlist(ctx, id, "carol")
	req.NoError(err)

	// When bob leaves through the slash command
	HandleStudy(ctx, r, studyInteraction("bob", sub(subLeave, idOpt(id))), svc, now)

	// Then the interaction was acknowledged before carol's notice went out
	req.Equal([][]string{{"carol", "respond"}}, n.seenAt)
	req.Equal([]string{"respond", "edit"}, r.calls)
	req.Equal([]string{"You left session #1. <@carol> moved up from the waitlist."}, r.edits)
}

func TestGetCommands(t *testing.T) {
	cmds := GetCommands()
	require.Len(t, cmds, 1)
	names := make([]string, 0, len(cmds[0].Options))
	for _, o := range cmds[0].Options {
		names = append(names, o.Name)
	}
	require.Equal(t, []string{subFeed, subJoin, subLeave, subWaitlist, subUnwaitlist}, names)
}

func TestInvokerID(t *testing.T) {
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "7"}}}
	require.Equal(t, "7", invokerID(dm))
	require.Equal(t, "", invokerID(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}))
}
