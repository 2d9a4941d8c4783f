package sponsorship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parishcore/pkg/types"
)

// highUtilizationThreshold is the percentage above which a round is flagged
// on the dashboard.
const highUtilizationThreshold = 90.0

// Aggregator is the read side: it derives counts, utilization and alerts
// from the current case and round state. It never mutates anything and is
// safe to call concurrently.
type Aggregator struct {
	cases     CaseStore
	rounds    RoundStore
	allocator *Allocator

	now func() time.Time
}

func NewAggregator(cases CaseStore, rounds RoundStore) *Aggregator {
	return &Aggregator{
		cases:     cases,
		rounds:    rounds,
		allocator: NewAllocator(cases, rounds),
		now:       time.Now,
	}
}

// Report computes the dashboard snapshot. An empty case store yields zero
// counts and no alerts, not an error.
func (a *Aggregator) Report(ctx context.Context, filter types.MetricsFilter) (*types.MetricsReport, error) {
	asOf := a.now()
	if filter.To != nil {
		asOf = *filter.To
	}

	counts, err := a.cases.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count cases by status: %w", err)
	}

	monthExecuted, err := a.cases.ActivatedInMonth(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("count month executed: %w", err)
	}

	report := &types.MetricsReport{
		StatusCounts:  counts,
		MonthExecuted: monthExecuted,
		Alerts:        make([]types.Alert, 0),
		GeneratedAt:   asOf,
	}

	if err := a.fillUtilization(ctx, filter, asOf, report); err != nil {
		return nil, err
	}

	if err := a.appendCapacityAlerts(ctx, report); err != nil {
		return nil, err
	}

	unassigned, err := a.cases.UnassignedActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unassigned active cases: %w", err)
	}
	for _, c := range unassigned {
		caseID := c.ID
		report.Alerts = append(report.Alerts, types.Alert{
			Kind:    types.AlertUnassignedCase,
			Message: fmt.Sprintf("active case %d has no budget round assigned", caseID),
			CaseID:  &caseID,
		})
	}

	return report, nil
}

// fillUtilization resolves the caller-selected round (or the current one)
// and stamps its usage onto the report. Having no current round at all is
// fine and the utilization section stays zero, but a round id the caller
// named must exist.
func (a *Aggregator) fillUtilization(ctx context.Context, filter types.MetricsFilter, asOf time.Time, report *types.MetricsReport) error {
	var round *types.BudgetRound
	var err error

	if filter.RoundID != nil {
		round, err = a.rounds.Round(ctx, *filter.RoundID)
	} else {
		round, err = a.rounds.CurrentRound(ctx, asOf)
	}
	if err != nil {
		if filter.RoundID == nil && errors.Is(err, types.ErrRoundNotFound) {
			return nil
		}
		return fmt.Errorf("resolve metrics round: %w", err)
	}

	usage, err := a.allocator.Usage(ctx, round.ID)
	if err != nil {
		return fmt.Errorf("compute round usage: %w", err)
	}

	report.BudgetUtilizationPercent = usage.UtilizationPercent
	report.UsedSlots = usage.UsedSlots
	report.SlotBudget = usage.Round.SlotBudget

	if usage.UtilizationPercent > highUtilizationThreshold {
		roundID := usage.Round.ID
		report.Alerts = append(report.Alerts, types.Alert{
			Kind: types.AlertHighUtilization,
			Message: fmt.Sprintf("round %d/%d at %.1f%% utilization",
				usage.Round.Year, usage.Round.RoundNumber, usage.UtilizationPercent),
			RoundID: &roundID,
		})
	}

	return nil
}

func (a *Aggregator) appendCapacityAlerts(ctx context.Context, report *types.MetricsReport) error {
	rounds, err := a.rounds.AllRounds(ctx)
	if err != nil {
		return fmt.Errorf("list rounds: %w", err)
	}

	for _, round := range rounds {
		used, err := a.cases.UsedSlots(ctx, round.ID)
		if err != nil {
			return fmt.Errorf("compute used slots for round %d: %w", round.ID, err)
		}
		if used > round.SlotBudget {
			roundID := round.ID
			report.Alerts = append(report.Alerts, types.Alert{
				Kind: types.AlertOverCapacity,
				Message: fmt.Sprintf("round %d/%d over capacity: %d of %d slots",
					round.Year, round.RoundNumber, used, round.SlotBudget),
				RoundID: &roundID,
			})
		}
	}

	return nil
}
