package studyhub

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/Prashanth1609/studyhub/internal/logging"
)

const (
	DefaultCapacity = 8
	DefaultInterval = 1
)

// SessionInput is what a user submits when creating or editing a session.
// In-person sessions may give BuildingName/RoomNumber instead of LocationText.
type SessionInput struct {
	Title         string         `json:"title" validate:"required,max=200"`
	Description   string         `json:"description" validate:"max=4000"`
	SubjectIDs    []int64        `json:"subject_ids"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	IsVirtual     bool           `json:"is_virtual"`
	VirtualLink   string         `json:"virtual_link" validate:"omitempty,url"`
	BuildingName  string         `json:"building_name" validate:"max=100"`
	RoomNumber    string         `json:"room_number" validate:"max=20"`
	LocationText  string         `json:"location_text" validate:"max=255"`
	Capacity      int            `json:"capacity" validate:"gte=0"`
	IsRecurring   bool           `json:"is_recurring"`
	Recurrence    RecurrenceKind `json:"recurrence_type" validate:"omitempty,oneof=none daily weekly monthly"`
	Interval      int            `json:"recurrence_interval" validate:"gte=0"`
	RecurrenceEnd *time.Time     `json:"recurrence_end_date,omitempty"`
}

type SessionDetail struct {
	Session   *Session        `json:"session"`
	Next      *Occurrence     `json:"next_occurrence,omitempty"`
	Members   []Membership    `json:"members"`
	Messages  []Message       `json:"messages"`
	SpotsLeft int             `json:"spots_left"`
	IsMember  bool            `json:"is_member"`
	Waitlist  []WaitlistEntry `json:"waitlist"`
}

type FeedPage struct {
	Items         []FeedItem `json:"items"`
	UpcomingToday int        `json:"upcoming_today"`
}

type ProfileStats struct {
	SessionsOwned int `json:"sessions_owned"`
	Partners      int `json:"partners"`
	StudyHours    int `json:"study_hours"`
}

// LeaveResult reports who, if anyone, took the freed spot.
type LeaveResult struct {
	Promoted  *Membership `json:"promoted,omitempty"`
	Notified  int         `json:"notified"`
	SpotsLeft int         `json:"spots_left"`
}

// Service runs the session workflows on top of a Store. Every membership
// change happens in one store transaction; notifications go out after it
// commits.
type Service struct {
	store      Store
	ledger     *Ledger
	promoter   *Promoter
	dispatcher *Dispatcher
	validate   *validator.Validate
	now        func() time.Time
}

func NewService(store Store, dispatcher *Dispatcher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(nil, DispatcherConfig{}, now)
	}
	ledger := NewLedger(now)
	return &Service{
		store:      store,
		ledger:     ledger,
		promoter:   NewPromoter(ledger),
		dispatcher: dispatcher,
		validate:   validator.New(),
		now:        now,
	}
}

func (s *Service) Session(ctx context.Context, id int64) (*Session, error) {
	return s.store.Session(ctx, id)
}

// CreateSession stores a new session with the actor as its host.
func (s *Service) CreateSession(ctx context.Context, actor Actor, in SessionInput) (*Session, error) {
	sess, err := s.build(in)
	if err != nil {
		return nil, err
	}
	sess.OwnerID = actor.UserID
	sess.CreatedAt = s.now()

	err = s.store.Create(ctx, sess, func(tx Tx) error {
		if _, err := s.ledger.AddHost(ctx, tx, sess.ID, actor.UserID); err != nil {
			return fmt.Errorf("add host: %w", err)
		}
		return tx.SetSubjects(ctx, sess.ID, in.SubjectIDs)
	})
	if err != nil {
		return nil, err
	}
	l := logging.Ctx(ctx)
	l.Info().Int64(logging.FieldSessionID, sess.ID).Str(logging.FieldUserID, actor.UserID).Msg("session created")
	return s.store.Session(ctx, sess.ID)
}

// UpdateSession replaces the editable fields. Growing the capacity promotes
// waitlisted users into the new spots.
func (s *Service) UpdateSession(ctx context.Context, actor Actor, id int64, in SessionInput) (*Session, error) {
	next, err := s.build(in)
	if err != nil {
		return nil, err
	}

	var (
		snapshot Session
		intents  []NotificationIntent
	)
	err = s.store.Update(ctx, id, func(tx Tx, sess *Session) error {
		if !actor.CanManage(sess) {
			return ErrForbidden
		}
		count, err := s.ledger.Count(ctx, tx, id)
		if err != nil {
			return err
		}
		if next.Capacity < count {
			return fmt.Errorf("%w: capacity %d is below the %d current members", ErrInvalidSession, next.Capacity, count)
		}
		grown := next.Capacity - sess.Capacity

		next.ID = sess.ID
		next.OwnerID = sess.OwnerID
		next.CreatedAt = sess.CreatedAt
		if err := tx.UpdateSession(ctx, next); err != nil {
			return err
		}
		if err := tx.SetSubjects(ctx, id, in.SubjectIDs); err != nil {
			return err
		}
		if grown > 0 {
			_, intents, err = s.promote(ctx, tx, next, min(grown, next.Capacity-count))
			if err != nil {
				return err
			}
		}
		snapshot = *next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, &snapshot, intents)
	return s.store.Session(ctx, id)
}

func (s *Service) DeleteSession(ctx context.Context, actor Actor, id int64) error {
	return s.store.Update(ctx, id, func(tx Tx, sess *Session) error {
		if !actor.CanManage(sess) {
			return ErrForbidden
		}
		return tx.DeleteSession(ctx, id)
	})
}

// Detail loads a session with everything its page shows. The waitlist is
// only visible to the owner.
func (s *Service) Detail(ctx context.Context, viewerID string, id int64) (*SessionDetail, error) {
	sess, err := s.store.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &SessionDetail{Session: sess}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.store.Members(gctx, id)
		d.Members = members
		return err
	})
	g.Go(func() error {
		msgs, err := s.store.Messages(gctx, id)
		d.Messages = msgs
		return err
	})
	if viewerID != "" && viewerID == sess.OwnerID {
		g.Go(func() error {
			queue, err := s.store.Waitlist(gctx, id)
			d.Waitlist = queue
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.IsMember = lo.ContainsBy(d.Members, func(m Membership) bool { return m.UserID == viewerID })
	d.SpotsLeft = max(sess.Capacity-len(d.Members), 0)
	if occ, ok := NextOccurrence(sess, s.now()); ok {
		d.Next = &occ
	}
	if d.Waitlist == nil {
		d.Waitlist = []WaitlistEntry{}
	}
	return d, nil
}

// Feed lists upcoming sessions seen from ref.
func (s *Service) Feed(ctx context.Context, ref time.Time, q FeedQuery) (*FeedPage, error) {
	sessions, err := s.store.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	items := Filter(sessions, ref, q)
	return &FeedPage{Items: items, UpcomingToday: StartingOn(items, ref)}, nil
}

func (s *Service) Join(ctx context.Context, id int64, userID string) (*Membership, error) {
	var m *Membership
	err := s.store.Update(ctx, id, func(tx Tx, sess *Session) error {
		var err error
		m, err = s.ledger.Join(ctx, tx, sess, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Leave removes a member and hands the freed spot to the head of the
// waitlist.
func (s *Service) Leave(ctx context.Context, id int64, userID string) (*LeaveResult, error) {
	var (
		snapshot Session
		res      LeaveResult
		intents  []NotificationIntent
	)
	err := s.store.Update(ctx, id, func(tx Tx, sess *Session) error {
		freed, err := s.ledger.Leave(ctx, tx, sess, userID)
		if err != nil {
			return err
		}
		var promoted []*Membership
		promoted, intents, err = s.promote(ctx, tx, sess, freed)
		if err != nil {
			return err
		}
		if len(promoted) > 0 {
			res.Promoted = promoted[0]
		}
		res.SpotsLeft = freed - len(promoted)
		snapshot = *sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	report := s.dispatcher.Dispatch(ctx, &snapshot, intents)
	res.Notified = len(report.Sent)
	return &res, nil
}

// promote runs the promoter once per free spot and stops early when the
// waitlist runs dry.
func (s *Service) promote(ctx context.Context, tx Tx, sess *Session, spots int) ([]*Membership, []NotificationIntent, error) {
	var (
		promoted []*Membership
		intents  []NotificationIntent
	)
	for i := 0; i < spots; i++ {
		r, err := s.promoter.OnSpotOpened(ctx, tx, sess)
		if err != nil {
			return nil, nil, err
		}
		if r.Promoted == nil {
			break
		}
		promoted = append(promoted, r.Promoted)
		intents = append(intents, r.Intents...)
	}
	return promoted, intents, nil
}

// JoinWaitlist queues userID on a full session.
func (s *Service) JoinWaitlist(ctx context.Context, id int64, userID string) (*WaitlistEntry, error) {
	var entry *WaitlistEntry
	err := s.store.Update(ctx, id, func(tx Tx, sess *Session) error {
		m, err := tx.Membership(ctx, id, userID)
		if err != nil {
			return err
		}
		if m != nil {
			return ErrAlreadyMember
		}
		count, err := s.ledger.Count(ctx, tx, id)
		if err != nil {
			return err
		}
		if count < sess.Capacity {
			return ErrSessionHasSpots
		}
		existing, err := tx.WaitlistEntry(ctx, id, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyWaitlisted
		}
		e := &WaitlistEntry{SessionID: id, UserID: userID, AddedAt: s.now()}
		if err := tx.InsertWaitlistEntry(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) LeaveWaitlist(ctx context.Context, id int64, userID string) error {
	return s.store.Update(ctx, id, func(tx Tx, _ *Session) error {
		ok, err := tx.DeleteWaitlistEntry(ctx, id, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotWaitlisted
		}
		return nil
	})
}

// PostMessage appends a message to the session chat. Only members may post.
func (s *Service) PostMessage(ctx context.Context, id int64, userID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	var msg *Message
	err := s.store.Update(ctx, id, func(tx Tx, _ *Session) error {
		m, err := tx.Membership(ctx, id, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotAMember
		}
		msg = &Message{SessionID: id, UserID: userID, Text: text, CreatedAt: s.now()}
		return tx.InsertMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) Messages(ctx context.Context, id int64) ([]Message, error) {
	if _, err := s.store.Session(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Messages(ctx, id)
}

func (s *Service) Subjects(ctx context.Context, level EducationLevel) ([]Subject, error) {
	return s.store.Subjects(ctx, level)
}

// RegisterUser records a user seen at login. New users start as students.
func (s *Service) RegisterUser(ctx context.Context, id, username, email string) (*User, error) {
	return s.store.UpsertUser(ctx, &User{
		ID:             id,
		Username:       username,
		Email:          email,
		Role:           UserStudent,
		EducationLevel: Bachelors,
		CreatedAt:      s.now(),
	})
}

func (s *Service) User(ctx context.Context, id string) (*User, error) {
	return s.store.User(ctx, id)
}

// Profile counts owned sessions, distinct study partners and the hours of
// every session the user is part of.
func (s *Service) Profile(ctx context.Context, userID string) (*ProfileStats, error) {
	sessions, err := s.store.SessionsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	var (
		stats    ProfileStats
		partners = map[string]struct{}{}
		hours    float64
	)
	for _, sess := range sessions {
		if sess.OwnerID == userID {
			stats.SessionsOwned++
		}
		if d, ok := sess.Duration(); ok && d > 0 {
			hours += d.Hours()
		}
		members, err := s.store.Members(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.UserID != userID {
				partners[m.UserID] = struct{}{}
			}
		}
	}
	stats.Partners = len(partners)
	stats.StudyHours = int(math.Round(hours))
	return &stats, nil
}

// SendReminders notifies members of every session whose next occurrence
// starts within lead of now. Each occurrence is announced once.
func (s *Service) SendReminders(ctx context.Context, now time.Time, lead time.Duration) (int, error) {
	sessions, err := s.store.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	l := logging.Ctx(ctx)
	sent := 0
	for _, sess := range sessions {
		occ, ok := NextOccurrence(sess, now)
		if !ok || occ.Start.Before(now) || occ.Start.After(now.Add(lead)) {
			continue
		}
		fresh, err := s.store.MarkReminder(ctx, sess.ID, occ.Start)
		if err != nil {
			l.Error().Err(err).Int64(logging.FieldSessionID, sess.ID).Msg("mark reminder")
			continue
		}
		if !fresh {
			continue
		}
		members, err := s.store.Members(ctx, sess.ID)
		if err != nil {
			l.Error().Err(err).Int64(logging.FieldSessionID, sess.ID).Msg("load members for reminder")
			continue
		}
		intents := lo.Map(members, func(m Membership, _ int) NotificationIntent {
			in := newIntent(m.UserID, sess.ID, NotifyReminder)
			in.At = occ.Start
			return in
		})
		report := s.dispatcher.Dispatch(ctx, sess, intents)
		sent += len(report.Sent)
	}
	return sent, nil
}

// build validates in and turns it into a session without identity fields.
func (s *Service) build(in SessionInput) (*Session, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidSession)
	}
	if in.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", ErrInvalidSession)
	}
	if in.EndTime != nil && !in.EndTime.After(in.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidSession)
	}

	sess := &Session{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsVirtual:   in.IsVirtual,
		Capacity:    in.Capacity,
		IsRecurring: in.IsRecurring,
		Recurrence:  in.Recurrence,
		Interval:    in.Interval,
	}
	if sess.Capacity == 0 {
		sess.Capacity = DefaultCapacity
	}
	if sess.Interval == 0 {
		sess.Interval = DefaultInterval
	}

	if in.IsVirtual {
		sess.VirtualLink = strings.TrimSpace(in.VirtualLink)
		if sess.VirtualLink == "" {
			return nil, fmt.Errorf("%w: virtual sessions need a link", ErrInvalidSession)
		}
	} else {
		sess.LocationText = strings.TrimSpace(in.LocationText)
		if in.BuildingName != "" || in.RoomNumber != "" {
			sess.LocationText = strings.TrimSpace(fmt.Sprintf("%s - Room %s", in.BuildingName, in.RoomNumber))
		}
	}

	if in.IsRecurring {
		if sess.Recurrence == "" || sess.Recurrence == RecurrenceNone {
			return nil, fmt.Errorf("%w: recurring sessions need a recurrence type", ErrInvalidSession)
		}
		if in.RecurrenceEnd != nil && in.RecurrenceEnd.Before(in.StartTime) {
			return nil, fmt.Errorf("%w: recurrence ends before the first session", ErrInvalidSession)
		}
		sess.RecurrenceEnd = in.RecurrenceEnd
	} else {
		sess.Recurrence = RecurrenceNone
	}
	return sess, nil
}
