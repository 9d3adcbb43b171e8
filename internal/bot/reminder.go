package bot

import (
	"context"
	"time"

	"github.com/Prashanth1609/studyhub/internal/logging"
)

type reminderSender interface {
	SendReminders(ctx context.Context, now time.Time, lead time.Duration) (int, error)
}

// ReminderWorker periodically announces session occurrences that start soon.
// It does not need a Discord connection; delivery goes through the
// service's notifier.
type ReminderWorker struct {
	svc      reminderSender
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration
	lead     time.Duration
	now      func() time.Time
}

func NewReminderWorker(svc reminderSender, interval, lead time.Duration) *ReminderWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReminderWorker{
		svc:      svc,
		stopChan: make(chan struct{}),
		interval: interval,
		lead:     lead,
		now:      time.Now,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop(ctx)
}

func (w *ReminderWorker) Stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

// Run ticks until ctx is done.
func (w *ReminderWorker) Run(ctx context.Context) error {
	w.Start(ctx)
	<-ctx.Done()
	w.Stop()
	return nil
}

func (w *ReminderWorker) loop(ctx context.Context) {
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *ReminderWorker) tick(ctx context.Context) int {
	l := logging.Ctx(ctx)
	sent, err := w.svc.SendReminders(ctx, w.now(), w.lead)
	if err != nil {
		l.Error().Err(err).Msg("reminder: failed to load sessions")
		return 0
	}
	if sent > 0 {
		l.Info().Int("sent", sent).Msg("reminder: notifications sent")
	}
	return sent
}
