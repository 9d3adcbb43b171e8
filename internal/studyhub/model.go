package studyhub

import "time"

type RecurrenceKind string

const (
	RecurrenceNone    RecurrenceKind = "none"
	RecurrenceDaily   RecurrenceKind = "daily"
	RecurrenceWeekly  RecurrenceKind = "weekly"
	RecurrenceMonthly RecurrenceKind = "monthly"
)

// Session is a scheduled study gathering, virtual or in-person.
type Session struct {
	ID            int64          `json:"id"`
	OwnerID       string         `json:"owner_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	IsVirtual     bool           `json:"is_virtual"`
	VirtualLink   string         `json:"virtual_link,omitempty"`
	LocationText  string         `json:"location_text,omitempty"`
	Capacity      int            `json:"capacity"`
	IsRecurring   bool           `json:"is_recurring"`
	Recurrence    RecurrenceKind `json:"recurrence_type"`
	Interval      int            `json:"recurrence_interval"`
	RecurrenceEnd *time.Time     `json:"recurrence_end_date,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Subjects      []Subject      `json:"subjects,omitempty"`
}

// Recurs reports whether the session repeats.
func (s *Session) Recurs() bool {
	return s.IsRecurring && s.Recurrence != "" && s.Recurrence != RecurrenceNone
}

// Duration returns end-start, or false when the session has no end time.
func (s *Session) Duration() (time.Duration, bool) {
	if s.EndTime == nil {
		return 0, false
	}
	return s.EndTime.Sub(s.StartTime), true
}

// Place is the location shown in notifications: "Virtual" or the room text.
func (s *Session) Place() string {
	if s.IsVirtual {
		return "Virtual"
	}
	return s.LocationText
}

type MemberRole string

const (
	RoleHost   MemberRole = "host"
	RoleMember MemberRole = "member"
)

type Membership struct {
	SessionID int64      `json:"session_id"`
	UserID    string     `json:"user_id"`
	Role      MemberRole `json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`
}

// WaitlistEntry is a queued request to join a full session. ID orders entries
// that share the same AddedAt.
type WaitlistEntry struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	UserID    string    `json:"user_id"`
	AddedAt   time.Time `json:"added_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type EducationLevel string

const (
	Bachelors EducationLevel = "bachelors"
	Masters   EducationLevel = "masters"
	PhD       EducationLevel = "phd"
)

type Subject struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	EducationLevel EducationLevel `json:"education_level"`
	Department     string         `json:"department,omitempty"`
}

type UserRole string

const (
	UserStudent UserRole = "student"
	UserLeader  UserRole = "leader"
	UserAdmin   UserRole = "admin"
)

type User struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email,omitempty"`
	Role           UserRole       `json:"role"`
	EducationLevel EducationLevel `json:"education_level"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Actor is the caller of a workflow operation.
type Actor struct {
	UserID string
	Role   UserRole
}

// CanManage reports whether the actor may edit or delete the session.
func (a Actor) CanManage(s *Session) bool {
	switch a.Role {
	case UserAdmin:
		return true
	case UserStudent, UserLeader:
		return s.OwnerID == a.UserID
	default:
		return false
	}
}

// Occurrence is one concrete instance of a possibly recurring session.
type Occurrence struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}
