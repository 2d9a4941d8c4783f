package sponsorship

import (
	"parishcore/pkg/types"
)

// transitionTable is the single source of truth for the case workflow.
// Rejected, Completed and Closed are terminal. Closed is the administrative
// exit reachable from every non-Draft state and never re-opens.
var transitionTable = map[types.CaseStatus][]types.CaseStatus{
	types.CaseStatusDraft:     {types.CaseStatusSubmitted},
	types.CaseStatusSubmitted: {types.CaseStatusApproved, types.CaseStatusRejected, types.CaseStatusClosed},
	types.CaseStatusApproved:  {types.CaseStatusActive, types.CaseStatusClosed},
	types.CaseStatusActive:    {types.CaseStatusSuspended, types.CaseStatusCompleted, types.CaseStatusClosed},
	types.CaseStatusSuspended: {types.CaseStatusActive, types.CaseStatusClosed},
	types.CaseStatusRejected:  {},
	types.CaseStatusCompleted: {},
	types.CaseStatusClosed:    {},
}

func CanTransition(from, to types.CaseStatus) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LegalTargets returns the states reachable from the given status.
func LegalTargets(from types.CaseStatus) []types.CaseStatus {
	targets := transitionTable[from]
	out := make([]types.CaseStatus, len(targets))
	copy(out, targets)
	return out
}

// requiresReason marks transitions that demand a non-empty justification.
func requiresReason(to types.CaseStatus) bool {
	return to == types.CaseStatusApproved || to == types.CaseStatusRejected
}

// eventForTransition maps a workflow edge onto its timeline event type.
func eventForTransition(from, to types.CaseStatus) types.EventType {
	switch to {
	case types.CaseStatusSubmitted:
		return types.EventSubmission
	case types.CaseStatusApproved:
		return types.EventApproval
	case types.CaseStatusRejected:
		return types.EventRejection
	case types.CaseStatusActive:
		if from == types.CaseStatusSuspended {
			return types.EventReactivation
		}
		return types.EventActivation
	case types.CaseStatusSuspended:
		return types.EventSuspension
	case types.CaseStatusCompleted:
		return types.EventCompletion
	case types.CaseStatusClosed:
		return types.EventClosure
	}
	return types.EventType("")
}
