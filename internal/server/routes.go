package server

import (
	"net/http"

	"github.com/alexedwards/flow"
)

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/api/cases", s.handleCreateCase, http.MethodPost)
	r.HandleFunc("/api/cases", s.handleListCases, http.MethodGet)
	r.HandleFunc("/api/cases/:id", s.handleCaseDetail, http.MethodGet)
	r.HandleFunc("/api/cases/:id/transition", s.handleTransition, http.MethodPost)
	r.HandleFunc("/api/cases/:id/notes", s.handleAddNote, http.MethodPost)
	r.HandleFunc("/api/cases/:id/notes", s.handleListNotes, http.MethodGet)
	r.HandleFunc("/api/cases/:id/timeline", s.handleTimeline, http.MethodGet)

	r.HandleFunc("/api/rounds", s.handleCreateRound, http.MethodPost)
	r.HandleFunc("/api/rounds/:id", s.handleRoundUsage, http.MethodGet)
	r.HandleFunc("/api/rounds/:id/cases", s.handleRoundCases, http.MethodGet)
	r.HandleFunc("/api/rounds/:id", s.handleUpdateRound, http.MethodPatch)

	r.HandleFunc("/api/metrics", s.handleMetrics, http.MethodGet)

	r.HandleFunc("/api/reminders/due", s.handleDueReminders, http.MethodGet)
	r.HandleFunc("/api/cases/:id/reminder-sent", s.handleMarkReminderSent, http.MethodPost)

	r.HandleFunc("/api/priests", s.handleListPriests, http.MethodGet)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
