package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"parishcore/pkg/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, types.ErrCaseNotFound),
		errors.Is(err, types.ErrMemberNotFound),
		errors.Is(err, types.ErrNewcomerNotFound),
		errors.Is(err, types.ErrPriestNotFound),
		errors.Is(err, types.ErrRoundNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidTransition),
		errors.Is(err, types.ErrConcurrentModification),
		errors.Is(err, types.ErrReminderNotDue):
		status = http.StatusConflict
	case errors.Is(err, types.ErrReasonRequired),
		errors.Is(err, types.ErrSponsorNotActive):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
		s.respondJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	s.respondJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Service) badRequest(w http.ResponseWriter, msg string) {
	s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
