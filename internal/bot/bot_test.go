package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Prashanth1609/studyhub/internal/commands"
	"github.com/Prashanth1609/studyhub/internal/memstore"
	"github.com/Prashanth1609/studyhub/internal/mocks"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

var now = time.Date(2025, 3, 10, 17, 45, 0, 0, time.UTC)

type fakeDM struct {
	opened  []string
	sent    map[string]string
	openErr error
}

func (f *fakeDM) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, recipientID)
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeDM) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[channelID] = content
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestDMNotifierSend(t *testing.T) {
	req := require.New(t)
	dm := &fakeDM{}
	n := &DMNotifier{session: dm}

	err := n.Send(context.Background(), "42", "Spot Available in Algebra", "Great news!")

	req.NoError(err)
	req.Equal([]string{"42"}, dm.opened)
	req.Equal("**Spot Available in Algebra**\n\nGreat news!", dm.sent["dm-42"])
}

func TestDMNotifierOpenFails(t *testing.T) {
	boom := errors.New("boom")
	n := &DMNotifier{session: &fakeDM{openErr: boom}}

	err := n.Send(context.Background(), "42", "s", "b")

	require.ErrorIs(t, err, boom)
}

func TestFormatDMTruncates(t *testing.T) {
	out := formatDM("s", strings.Repeat("x", 3000))
	require.Len(t, []rune(out), discordMaxMessage)
	require.True(t, strings.HasSuffix(out, "…"))
}

func newService(t *testing.T, n studyhub.Notifier) *studyhub.Service {
	t.Helper()
	clock := func() time.Time { return now }
	d := studyhub.NewDispatcher(n, studyhub.DispatcherConfig{BaseURL: "http://localhost:3000"}, clock)
	return studyhub.NewService(memstore.New(studyhub.Catalog()), d, clock)
}

func TestReminderWorkerTick(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	svc := newService(t, notifier)
	ctx := context.Background()

	// Given a session starting in 15 minutes with two members
	s, err := svc.CreateSession(ctx, studyhub.Actor{UserID: "host", Role: studyhub.UserStudent}, studyhub.SessionInput{
		Title:        "Algebra",
		StartTime:    now.Add(15 * time.Minute),
		LocationText: "Library",
		Capacity:     4,
	})
	req.NoError(err)
	_, err = svc.Join(ctx, s.ID, "bob")
	req.NoError(err)

	notifier.EXPECT().Send(gomock.Any(), "host", "Reminder: Algebra", gomock.Any()).Return(nil)
	notifier.EXPECT().Send(gomock.Any(), "bob", "Reminder: Algebra", gomock.Any()).Return(nil)

	w := NewReminderWorker(svc, time.Minute, 30*time.Minute)
	w.now = func() time.Time { return now }

	// When the worker ticks twice
	first := w.tick(ctx)
	second := w.tick(ctx)

	// Then the occurrence is announced once
	req.Equal(2, first)
	req.Equal(0, second)
}

func TestReminderWorkerSkipsLaterSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	svc := newService(t, notifier)

	_, err := svc.CreateSession(context.Background(), studyhub.Actor{UserID: "host", Role: studyhub.UserStudent}, studyhub.SessionInput{
		Title:       "Later",
		StartTime:   now.Add(3 * time.Hour),
		IsVirtual:   true,
		VirtualLink: "https://meet.example.com/x",
	})
	require.NoError(t, err)

	w := NewReminderWorker(svc, time.Minute, 30*time.Minute)
	w.now = func() time.Time { return now }

	require.Equal(t, 0, w.tick(context.Background()))
}

type failingSender struct{}

func (failingSender) SendReminders(context.Context, time.Time, time.Duration) (int, error) {
	return 0, errors.New("db down")
}

func TestReminderWorkerError(t *testing.T) {
	w := NewReminderWorker(failingSender{}, 0, time.Minute)
	require.Equal(t, time.Minute, w.interval)
	require.Equal(t, 0, w.tick(context.Background()))
}

func TestReminderWorkerRunStops(t *testing.T) {
	w := NewReminderWorker(failingSender{}, time.Hour, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type fakeResponder struct {
	content string
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.content = resp.Data.Content
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.content = *edit.Content
	return &discordgo.Message{Content: f.content}, nil
}

func TestHandleApplicationCommand(t *testing.T) {
	svc := newService(t, studyhub.LogNotifier{})
	b := &Bot{svc: svc, now: func() time.Time { return now }}
	r := &fakeResponder{}

	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		User: &discordgo.User{ID: "bob"},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: commands.CommandStudy,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "feed",
				Type: discordgo.ApplicationCommandOptionSubCommand,
			}},
		},
	}}

	b.handleApplicationCommand(context.Background(), r, i)

	require.Equal(t, "No upcoming sessions match.", r.content)
}
