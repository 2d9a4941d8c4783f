package server

import (
	"net/http"
	"time"

	"parishcore/pkg/types"
)

func asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		raw = r.FormValue("as_of")
	}
	if raw == "" {
		return time.Now(), nil
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (s *Service) handleDueReminders(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		s.badRequest(w, "invalid as_of timestamp")
		return
	}

	due, err := s.scheduler.DueCases(r.Context(), asOf)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, due)
}

func (s *Service) handleMarkReminderSent(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		s.badRequest(w, "invalid case id")
		return
	}

	if err := r.ParseForm(); err != nil {
		s.badRequest(w, "invalid form payload")
		return
	}

	asOf, err := asOfParam(r)
	if err != nil {
		s.badRequest(w, "invalid as_of timestamp")
		return
	}

	channel := types.ReminderChannel(r.FormValue("channel"))
	if channel == "" {
		channel = types.ChannelEmail
	}

	c, err := s.scheduler.MarkSent(r.Context(), id, channel, asOf)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, c)
}
