package types

import (
	"time"
)

type BudgetRound struct {
	ID          int64      `db:"id"`
	Year        int        `db:"year"`
	RoundNumber int        `db:"round_number"`
	SlotBudget  int        `db:"slot_budget"`
	StartDate   *time.Time `db:"start_date"`
	EndDate     *time.Time `db:"end_date"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// RoundUsage is a round plus its derived slot consumption. UsedSlots is
// recomputed from the live capacity-counting case set on every read; it is
// not a stored column.
type RoundUsage struct {
	Round              BudgetRound
	UsedSlots          int
	UtilizationPercent float64
	OverCapacity       bool
}

type UpdateRoundInput struct {
	SlotBudget  *int       `form:"slot_budget"`
	RoundNumber *int       `form:"round_number"`
	StartDate   *time.Time `form:"start_date"`
	EndDate     *time.Time `form:"end_date"`
}
