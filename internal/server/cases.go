package server

import (
	"net/http"
	"strconv"

	"parishcore/pkg/types"

	"github.com/alexedwards/flow"
)

func caseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(flow.Param(r.Context(), "id"), 10, 64)
}

func (s *Service) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, "invalid form payload")
		return
	}

	var input types.NewCaseInput
	if err := decoder.Decode(&input, r.Form); err != nil {
		s.badRequest(w, "invalid case payload: "+err.Error())
		return
	}
	input.Actor = actor(r)

	c, err := s.engine.CreateCase(r.Context(), input)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, c)
}

func (s *Service) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if raw := q.Get("sponsor_id"); raw != "" {
		sponsorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.badRequest(w, "invalid sponsor id")
			return
		}
		cases, err := s.engine.CasesBySponsor(r.Context(), sponsorID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, cases)
		return
	}

	status := types.CaseStatus(q.Get("status"))
	if status == "" {
		s.badRequest(w, "status or sponsor_id filter is required")
		return
	}

	cases, err := s.engine.CasesByStatus(r.Context(), status)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, cases)
}

func (s *Service) handleCaseDetail(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		s.badRequest(w, "invalid case id")
		return
	}

	c, err := s.engine.Case(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, c)
}

func (s *Service) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		s.badRequest(w, "invalid case id")
		return
	}

	if err := r.ParseForm(); err != nil {
		s.badRequest(w, "invalid form payload")
		return
	}

	target := types.CaseStatus(r.FormValue("target"))
	reason := r.FormValue("reason")

	if target == "" {
		s.badRequest(w, "target status is required")
		return
	}

	c, err := s.engine.Transition(r.Context(), id, target, reason, actor(r))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, c)
}

func (s *Service) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		s.badRequest(w, "invalid case id")
		return
	}

	if err := r.ParseForm(); err != nil {
		s.badRequest(w, "invalid form payload")
		return
	}

	body := r.FormValue("body")
	restricted := r.FormValue("restricted") == "true"

	note, err := s.engine.AddNote(r.Context(), id, body, restricted, actor(r))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, note)
}

func (s *Service) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		s.badRequest(w, "invalid case id")
		return
	}

	// Restricted notes stay behind the privileged flag set by the gateway.
	includeRestricted := r.Header.Get("X-Privileged") == "true"

	notes, err := s.engine.Notes(r.Context(), id, includeRestricted)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, notes)
}

func (s *Service) handleTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := caseID(r)
	if err != nil {
		s.badRequest(w, "invalid case id")
		return
	}

	events, err := s.engine.Timeline(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, events)
}

func (s *Service) handleListPriests(w http.ResponseWriter, r *http.Request) {
	priests, err := s.priests.AllPriests(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, priests)
}
