package server

import (
	"net/http"
	"strconv"
	"time"

	"parishcore/pkg/types"

	"github.com/alexedwards/flow"
)

func (s *Service) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, "invalid form payload")
		return
	}

	var input struct {
		Year        int        `form:"year"`
		RoundNumber int        `form:"round_number"`
		SlotBudget  int        `form:"slot_budget"`
		StartDate   *time.Time `form:"start_date"`
		EndDate     *time.Time `form:"end_date"`
	}
	if err := decoder.Decode(&input, r.Form); err != nil {
		s.badRequest(w, "invalid round payload: "+err.Error())
		return
	}

	round := &types.BudgetRound{
		Year:        input.Year,
		RoundNumber: input.RoundNumber,
		SlotBudget:  input.SlotBudget,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}

	round, err := s.engine.CreateRound(r.Context(), round)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, round)
}

func (s *Service) handleUpdateRound(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(flow.Param(r.Context(), "id"), 10, 64)
	if err != nil {
		s.badRequest(w, "invalid round id")
		return
	}

	if err := r.ParseForm(); err != nil {
		s.badRequest(w, "invalid form payload")
		return
	}

	var input types.UpdateRoundInput
	if err := decoder.Decode(&input, r.Form); err != nil {
		s.badRequest(w, "invalid round payload: "+err.Error())
		return
	}

	round, err := s.engine.UpdateRound(r.Context(), id, input)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, round)
}

func (s *Service) handleRoundUsage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(flow.Param(r.Context(), "id"), 10, 64)
	if err != nil {
		s.badRequest(w, "invalid round id")
		return
	}

	usage, err := s.engine.RoundUsage(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, usage)
}

func (s *Service) handleRoundCases(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(flow.Param(r.Context(), "id"), 10, 64)
	if err != nil {
		s.badRequest(w, "invalid round id")
		return
	}

	cases, err := s.engine.CasesByRound(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, cases)
}

func (s *Service) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var filter types.MetricsFilter
	if err := decoder.Decode(&filter, r.URL.Query()); err != nil {
		s.badRequest(w, "invalid metrics filter: "+err.Error())
		return
	}

	report, err := s.metrics.Report(r.Context(), filter)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}
