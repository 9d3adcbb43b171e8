package studyhub

import (
	"context"
	"sort"

	"github.com/samber/lo"
)

// PromotionResult is empty when the waitlist was empty.
type PromotionResult struct {
	Promoted *Membership
	Intents  []NotificationIntent
}

// Promoter moves the head of a session's waitlist into the membership ledger.
type Promoter struct {
	ledger *Ledger
}

func NewPromoter(ledger *Ledger) *Promoter {
	return &Promoter{ledger: ledger}
}

// OnSpotOpened promotes at most one waitlisted user. Call it once per freed
// spot, inside the transaction that freed it.
func (p *Promoter) OnSpotOpened(ctx context.Context, tx Tx, s *Session) (PromotionResult, error) {
	queue, err := tx.Waitlist(ctx, s.ID)
	if err != nil {
		return PromotionResult{}, err
	}
	if len(queue) == 0 {
		return PromotionResult{}, nil
	}
	sortQueue(queue)
	head := queue[0]

	m, err := p.ledger.admit(ctx, tx, s.ID, head.UserID)
	if err != nil {
		return PromotionResult{}, err
	}
	if _, err := tx.DeleteWaitlistEntry(ctx, s.ID, head.UserID); err != nil {
		return PromotionResult{}, err
	}

	intents := make([]NotificationIntent, 0, len(queue))
	intents = append(intents, newIntent(head.UserID, s.ID, NotifyPromoted))
	intents = append(intents, lo.Map(queue[1:], func(e WaitlistEntry, _ int) NotificationIntent {
		return newIntent(e.UserID, s.ID, NotifySpotAvailable)
	})...)

	return PromotionResult{Promoted: m, Intents: intents}, nil
}

// sortQueue orders entries oldest first, breaking ties by entry id.
func sortQueue(queue []WaitlistEntry) {
	sort.SliceStable(queue, func(i, j int) bool {
		if !queue[i].AddedAt.Equal(queue[j].AddedAt) {
			return queue[i].AddedAt.Before(queue[j].AddedAt)
		}
		return queue[i].ID < queue[j].ID
	})
}
