package seed

import (
	"context"
	"fmt"
	"time"

	"parishcore/internal/store"
	"parishcore/internal/utils"
	"parishcore/pkg/types"
)

// SeedRounds creates the four quarterly budget rounds for a year, skipping
// any that already exist.
func SeedRounds(ctx context.Context, repo *store.RoundRepository, year, slotBudget int) ([]*types.BudgetRound, error) {
	existing, err := repo.RoundsByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list existing rounds: %w", err)
	}

	have := make(map[int]bool, len(existing))
	for _, round := range existing {
		have[round.RoundNumber] = true
	}

	created := make([]*types.BudgetRound, 0, 4)
	for quarter := 1; quarter <= 4; quarter++ {
		if have[quarter] {
			continue
		}

		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, 0).Add(-time.Second)

		round := &types.BudgetRound{
			Year:        year,
			RoundNumber: quarter,
			SlotBudget:  slotBudget,
			StartDate:   utils.TimePtr(start),
			EndDate:     utils.TimePtr(end),
		}

		if err := repo.CreateRound(ctx, round); err != nil {
			return nil, fmt.Errorf("create round %d/%d: %w", year, quarter, err)
		}

		created = append(created, round)
	}

	return created, nil
}
