package types

import (
	"time"
)

// Note is a free-text annotation on a case. Restricted notes are only
// surfaced to privileged roles by the caller; the engine stores the flag.
type Note struct {
	ID         string    `db:"id"`
	CaseID     int64     `db:"case_id"`
	Body       string    `db:"body"`
	Restricted bool      `db:"restricted"`
	Actor      string    `db:"actor"`
	CreatedAt  time.Time `db:"created_at"`
}
