package sponsorship

import (
	"context"
	"fmt"
	"math"
	"time"

	"parishcore/pkg/types"
)

// Allocator resolves budget rounds for cases and derives slot consumption.
// used_slots is always recomputed from the live capacity-counting case set
// (CaseStore.UsedSlots); there is no stored counter to decrement, so a case
// leaving and re-entering a counting status cannot leak or double-count
// slots.
type Allocator struct {
	cases  CaseStore
	rounds RoundStore
}

func NewAllocator(cases CaseStore, rounds RoundStore) *Allocator {
	return &Allocator{cases: cases, rounds: rounds}
}

// AssignRound picks the round for the case's requested (month, year), or
// the round covering asOf when the case names no period, and writes the
// linkage onto the snapshot. Capacity never blocks the assignment;
// over-capacity is surfaced through metrics instead.
func (a *Allocator) AssignRound(ctx context.Context, c *types.SponsorshipCase, asOf time.Time) (*types.BudgetRound, error) {
	var round *types.BudgetRound
	var err error

	if c.BudgetMonth != nil && c.BudgetYear != nil {
		round, err = a.rounds.RoundForPeriod(ctx, *c.BudgetMonth, *c.BudgetYear)
	} else {
		round, err = a.rounds.CurrentRound(ctx, asOf)
	}
	if err != nil {
		return nil, err
	}

	c.BudgetRoundID = &round.ID

	return round, nil
}

// Usage returns a round together with its derived consumption figures from
// a single consistent read of the referencing cases.
func (a *Allocator) Usage(ctx context.Context, roundID int64) (*types.RoundUsage, error) {
	round, err := a.rounds.Round(ctx, roundID)
	if err != nil {
		return nil, err
	}

	used, err := a.cases.UsedSlots(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("compute used slots for round %d: %w", roundID, err)
	}

	return &types.RoundUsage{
		Round:              *round,
		UsedSlots:          used,
		UtilizationPercent: Utilization(used, round.SlotBudget),
		OverCapacity:       used > round.SlotBudget,
	}, nil
}

// Utilization is used/capacity as a percentage, rounded to one decimal.
// A round with zero capacity reports 0, never a division fault.
func Utilization(usedSlots, slotBudget int) float64 {
	if slotBudget <= 0 {
		return 0
	}
	return math.Round(float64(usedSlots)/float64(slotBudget)*1000) / 10
}
