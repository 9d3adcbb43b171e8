//go:generate go run go.uber.org/mock/mockgen -source=notify.go -destination=../mocks/mock_notifier.go -package=mocks
package studyhub

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Prashanth1609/studyhub/internal/logging"
)

type NotificationKind string

const (
	NotifyPromoted      NotificationKind = "promoted"
	NotifySpotAvailable NotificationKind = "spot_available"
	NotifyReminder      NotificationKind = "reminder"
)

// NotificationIntent is a message that should reach Recipient once the
// transaction that produced it has committed. A zero At means "the session's
// next occurrence".
type NotificationIntent struct {
	ID        string           `json:"id"`
	Recipient string           `json:"recipient"`
	SessionID int64            `json:"session_id"`
	Kind      NotificationKind `json:"kind"`
	At        time.Time        `json:"at,omitempty"`
}

func newIntent(recipient string, sessionID int64, kind NotificationKind) NotificationIntent {
	return NotificationIntent{ID: uuid.NewString(), Recipient: recipient, SessionID: sessionID, Kind: kind}
}

// Notifier delivers a rendered message to a user.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogNotifier only logs. It stands in when no delivery channel is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	l := logging.Ctx(ctx)
	l.Info().Str(logging.FieldRecipient, recipient).Str("subject", subject).Msg("notification (log only)")
	return nil
}

type DispatcherConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Attempts int
}

// Dispatcher renders intents and hands them to a Notifier. Delivery is best
// effort: failures are logged and reported, never returned as errors.
type Dispatcher struct {
	notifier Notifier
	baseURL  string
	timeout  time.Duration
	attempts int
	now      func() time.Time
	pause    func() time.Duration
}

func NewDispatcher(n Notifier, cfg DispatcherConfig, now func() time.Time) *Dispatcher {
	if n == nil {
		n = LogNotifier{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 2
	}
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		notifier: n,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		attempts: cfg.Attempts,
		now:      now,
		pause: func() time.Duration {
			return time.Duration(300+rand.Intn(500)) * time.Millisecond
		},
	}
}

type DeliveryReport struct {
	Sent   []NotificationIntent
	Failed []NotificationIntent
}

// Dispatch sends intents in order.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, intents []NotificationIntent) DeliveryReport {
	var report DeliveryReport
	if len(intents) == 0 {
		return report
	}
	l := logging.Ctx(ctx)
	for _, in := range intents {
		subject, body := d.Render(s, in)
		if err := d.sendWithRetry(ctx, in.Recipient, subject, body); err != nil {
			l.Warn().
				Err(fmt.Errorf("%w: %v", ErrNotificationDelivery, err)).
				Str(logging.FieldRecipient, in.Recipient).
				Int64(logging.FieldSessionID, in.SessionID).
				Str(logging.FieldKind, string(in.Kind)).
				Msg("notification not delivered")
			report.Failed = append(report.Failed, in)
			continue
		}
		report.Sent = append(report.Sent, in)
	}
	return report
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, recipient, subject, body string) error {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.notifier.Send(sendCtx, recipient, subject, body)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) || attempt == d.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(d.pause()):
		}
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// Render builds the subject and body for one intent.
func (d *Dispatcher) Render(s *Session, in NotificationIntent) (string, string) {
	at := in.At
	if at.IsZero() {
		at = s.StartTime
		if occ, ok := NextOccurrence(s, d.now()); ok {
			at = occ.Start
		}
	}
	link := fmt.Sprintf("%s/sessions/%d", d.baseURL, s.ID)
	details := fmt.Sprintf("Session Details:\nDate: %s\nTime: %s\nLocation: %s",
		at.Format("January 02, 2006"), at.Format("03:04 PM"), s.Place())

	switch in.Kind {
	case NotifyPromoted:
		return fmt.Sprintf("Spot Available in %s", s.Title),
			fmt.Sprintf("Great news! A spot has opened up in \"%s\" and you have been automatically added to the session.\n\n%s\n\nYou can view the session details at: %s",
				s.Title, details, link)
	case NotifySpotAvailable:
		return fmt.Sprintf("Spot Available in %s", s.Title),
			fmt.Sprintf("A spot has opened up in \"%s\"!\n\n%s\n\nJoin now at: %s", s.Title, details, link)
	case NotifyReminder:
		return fmt.Sprintf("Reminder: %s", s.Title),
			fmt.Sprintf("\"%s\" starts at %s.\n\n%s\n\n%s", s.Title, at.Format("03:04 PM"), details, link)
	default:
		return s.Title, link
	}
}
