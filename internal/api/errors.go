package api

import (
	"errors"
	"net/http"

	"github.com/Prashanth1609/studyhub/internal/logging"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

// statusFor maps workflow errors to HTTP statuses. Outcomes that leave the
// caller where they wanted to be are handled by the handlers before this.
func statusFor(err error) int {
	switch {
	case errors.Is(err, studyhub.ErrSessionNotFound), errors.Is(err, studyhub.ErrNotWaitlisted):
		return http.StatusNotFound
	case errors.Is(err, studyhub.ErrForbidden), errors.Is(err, studyhub.ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, studyhub.ErrInvalidSession), errors.Is(err, studyhub.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, studyhub.ErrSessionFull), errors.Is(err, studyhub.ErrSessionHasSpots),
		errors.Is(err, studyhub.ErrHostLeave), errors.Is(err, studyhub.ErrAlreadyMember),
		errors.Is(err, studyhub.ErrAlreadyWaitlisted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		l := logging.Ctx(r.Context())
		l.Error().Err(err).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, errorBody(msg))
}
