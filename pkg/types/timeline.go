package types

import (
	"time"
)

type EventType string

const (
	EventSubmission   EventType = "SUBMISSION"
	EventApproval     EventType = "APPROVAL"
	EventRejection    EventType = "REJECTION"
	EventActivation   EventType = "ACTIVATION"
	EventSuspension   EventType = "SUSPENSION"
	EventReactivation EventType = "REACTIVATION"
	EventCompletion   EventType = "COMPLETION"
	EventClosure      EventType = "CLOSURE"
	EventReminderSent EventType = "REMINDER_SENT"
	EventNoteAdded    EventType = "NOTE_ADDED"
)

// TimelineEvent is one append-only history entry for a case. Rows are
// write-once: no update or delete path exists anywhere in the codebase.
type TimelineEvent struct {
	ID         string          `db:"id"`
	CaseID     int64           `db:"case_id"`
	EventType  EventType       `db:"event_type"`
	FromStatus *CaseStatus     `db:"from_status"`
	ToStatus   *CaseStatus     `db:"to_status"`
	Reason     *string         `db:"reason"`
	Channel    ReminderChannel `db:"channel"`
	Actor      string          `db:"actor"`
	OccurredAt time.Time       `db:"occurred_at"`
}
