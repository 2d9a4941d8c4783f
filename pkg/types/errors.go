package types

import "errors"

// Workflow errors. Call sites wrap these with fmt.Errorf("...: %w", ...)
// to attach the case, transition, or sponsor involved; callers branch with
// errors.Is.
var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrReasonRequired         = errors.New("a reason is required for this transition")
	ErrSponsorNotActive       = errors.New("sponsor membership is not active")
	ErrConcurrentModification = errors.New("case was modified concurrently, refetch and retry")
	ErrRoundNotFound          = errors.New("budget round not found")
	ErrReminderNotDue         = errors.New("reminder is not due")
)

var (
	ErrCaseNotFound     = errors.New("sponsorship case not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrNewcomerNotFound = errors.New("newcomer not found")
	ErrPriestNotFound   = errors.New("priest not found")
	ErrNoteNotFound     = errors.New("note not found")
)
