package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Prashanth1609/studyhub/internal/calendar"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

// Membership outcomes reported in the "status" field.
const (
	statusJoined            = "joined"
	statusAlreadyJoined     = "already_joined"
	statusLeft              = "left"
	statusNotMember         = "not_member"
	statusWaitlisted        = "waitlisted"
	statusAlreadyWaitlisted = "already_waitlisted"
	statusRemoved           = "removed"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSubjects(w http.ResponseWriter, r *http.Request) {
	level := studyhub.EducationLevel(r.URL.Query().Get("level"))
	if level != "" && !studyhub.ValidLevel(level) {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown education level"))
		return
	}
	subjects, err := a.svc.Subjects(r.Context(), level)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (a *API) handleCalendar(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	sess, err := a.svc.Session(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner, err := a.svc.User(r.Context(), sess.OwnerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", calendar.Filename(sess)))
	_, _ = w.Write([]byte(calendar.Render(sess, owner, a.now())))
}

// Protected handlers
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	user, err := a.svc.User(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := a.svc.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"stats": stats,
	})
}

func (a *API) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := studyhub.ParseReferenceTime(q.Get("local_datetime"), a.now())
	page, err := a.svc.Feed(r.Context(), ref, studyhub.FeedQuery{
		Text:  q.Get("q"),
		Range: studyhub.ParseDateRange(q.Get("date")),
		Type:  studyhub.ParseSessionType(q.Get("session_type")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if page.Items == nil {
		page.Items = []studyhub.FeedItem{}
	}
	writeJSON(w, http.StatusOK, page)
}

func decodeInput(r *http.Request) (studyhub.SessionInput, error) {
	var in studyhub.SessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, fmt.Errorf("%w: invalid request body", studyhub.ErrInvalidSession)
	}
	return in, nil
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	in, err := decodeInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := a.svc.CreateSession(r.Context(), claims.Actor(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (a *API) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	detail, err := a.svc.Detail(r.Context(), claims.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := a.svc.UpdateSession(r.Context(), claims.Actor(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	if err := a.svc.DeleteSession(r.Context(), claims.Actor(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	m, err := a.svc.Join(r.Context(), id, claims.UserID)
	switch {
	case errors.Is(err, studyhub.ErrAlreadyMember):
		writeJSON(w, http.StatusOK, map[string]string{"status": statusAlreadyJoined})
	case err != nil:
		writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": statusJoined, "membership": m})
	}
}

func (a *API) handleLeave(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	res, err := a.svc.Leave(r.Context(), id, claims.UserID)
	switch {
	case errors.Is(err, studyhub.ErrNotAMember):
		writeJSON(w, http.StatusOK, map[string]string{"status": statusNotMember})
	case err != nil:
		writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     statusLeft,
			"promoted":   res.Promoted,
			"notified":   res.Notified,
			"spots_left": res.SpotsLeft,
		})
	}
}

func (a *API) handleJoinWaitlist(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	entry, err := a.svc.JoinWaitlist(r.Context(), id, claims.UserID)
	switch {
	case errors.Is(err, studyhub.ErrAlreadyWaitlisted):
		writeJSON(w, http.StatusOK, map[string]string{"status": statusAlreadyWaitlisted})
	case errors.Is(err, studyhub.ErrAlreadyMember):
		writeJSON(w, http.StatusOK, map[string]string{"status": statusAlreadyJoined})
	case err != nil:
		writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": statusWaitlisted, "entry": entry})
	}
}

func (a *API) handleLeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	if err := a.svc.LeaveWaitlist(r.Context(), id, claims.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": statusRemoved})
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	msgs, err := a.svc.Messages(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (a *API) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id, err := sessionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid session id"))
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	msg, err := a.svc.PostMessage(r.Context(), id, claims.UserID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
