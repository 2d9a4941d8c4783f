package store

import (
	"context"
	"fmt"
	"time"

	"parishcore/internal/utils"
	"parishcore/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const roundTableName = "parish.budget_rounds"

var roundColumns = utils.StructTagValues(types.BudgetRound{})

type RoundRepository struct {
	db DB
}

func NewRoundRepository(db DB) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) Round(ctx context.Context, roundID int64) (*types.BudgetRound, error) {
	query, args, err := psql().
		Select(roundColumns...).
		From(roundTableName).
		Where(sq.Eq{"id": roundID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate round query: %w", err)
	}

	var round types.BudgetRound
	err = pgxscan.Get(ctx, r.db, &round, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to fetch round: %w", err)
	}

	return &round, nil
}

func (r *RoundRepository) RoundsByYear(ctx context.Context, year int) ([]*types.BudgetRound, error) {
	query, args, err := psql().
		Select(roundColumns...).
		From(roundTableName).
		Where(sq.Eq{"year": year}).
		OrderBy("round_number asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate rounds-by-year query: %w", err)
	}

	rounds := make([]*types.BudgetRound, 0)
	if err := pgxscan.Select(ctx, r.db, &rounds, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch rounds by year: %w", err)
	}

	return rounds, nil
}

// RoundForPeriod resolves the round covering a (month, year) pair. A round
// with a date window wins when the period falls inside it; otherwise the
// month is mapped onto the year's rounds by round_number (rounds partition
// the year evenly, e.g. quarters when there are four).
func (r *RoundRepository) RoundForPeriod(ctx context.Context, month, year int) (*types.BudgetRound, error) {
	rounds, err := r.RoundsByYear(ctx, year)
	if err != nil {
		return nil, err
	}

	if len(rounds) == 0 {
		return nil, fmt.Errorf("no rounds for %d-%02d: %w", year, month, types.ErrRoundNotFound)
	}

	at := time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
	for _, round := range rounds {
		if round.StartDate == nil || round.EndDate == nil {
			continue
		}
		if !at.Before(*round.StartDate) && !at.After(*round.EndDate) {
			return round, nil
		}
	}

	monthsPerRound := 12 / len(rounds)
	if monthsPerRound == 0 {
		monthsPerRound = 1
	}
	wanted := (month-1)/monthsPerRound + 1

	for _, round := range rounds {
		if round.RoundNumber == wanted {
			return round, nil
		}
	}

	return nil, fmt.Errorf("no round covers %d-%02d: %w", year, month, types.ErrRoundNotFound)
}

// CurrentRound is the round whose window contains asOf, falling back to the
// latest round of asOf's year.
func (r *RoundRepository) CurrentRound(ctx context.Context, asOf time.Time) (*types.BudgetRound, error) {
	rounds, err := r.RoundsByYear(ctx, asOf.Year())
	if err != nil {
		return nil, err
	}

	if len(rounds) == 0 {
		return nil, fmt.Errorf("no rounds for %d: %w", asOf.Year(), types.ErrRoundNotFound)
	}

	for _, round := range rounds {
		if round.StartDate == nil || round.EndDate == nil {
			continue
		}
		if !asOf.Before(*round.StartDate) && !asOf.After(*round.EndDate) {
			return round, nil
		}
	}

	return rounds[len(rounds)-1], nil
}

func (r *RoundRepository) CreateRound(ctx context.Context, round *types.BudgetRound) error {
	now := time.Now()
	round.CreatedAt = now
	round.UpdatedAt = now

	roundMap := utils.StructToMap(round)
	delete(roundMap, "id")

	query, args, err := psql().
		Insert(roundTableName).
		SetMap(roundMap).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert round query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&round.ID); err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	return nil
}

func (r *RoundRepository) UpdateRound(ctx context.Context, roundID int64, round *types.BudgetRound) error {
	now := time.Now()
	round.ID = roundID
	round.UpdatedAt = now

	roundMap := utils.StructToMap(round)
	delete(roundMap, "id")
	delete(roundMap, "created_at")

	query, args, err := psql().
		Update(roundTableName).
		SetMap(roundMap).
		Where(sq.Eq{"id": roundID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update round query for round %d: %w", roundID, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update round %d: %w", roundID, err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrRoundNotFound
	}

	return nil
}

func (r *RoundRepository) AllRounds(ctx context.Context) ([]*types.BudgetRound, error) {
	query, args, err := psql().
		Select(roundColumns...).
		From(roundTableName).
		OrderBy("year desc", "round_number asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate all rounds query: %w", err)
	}

	rounds := make([]*types.BudgetRound, 0)
	if err := pgxscan.Select(ctx, r.db, &rounds, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch rounds: %w", err)
	}

	return rounds, nil
}
