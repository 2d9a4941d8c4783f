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

const newcomerTableName = "parish.newcomers"

var newcomerColumns = utils.StructTagValues(types.Newcomer{})

type NewcomerRepository struct {
	db DB
}

func NewNewcomerRepository(db DB) *NewcomerRepository {
	return &NewcomerRepository{db: db}
}

func (r *NewcomerRepository) Newcomer(ctx context.Context, newcomerID int64) (*types.Newcomer, error) {
	query, args, err := psql().
		Select(newcomerColumns...).
		From(newcomerTableName).
		Where(sq.Eq{"id": newcomerID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate newcomer query: %w", err)
	}

	var newcomer types.Newcomer
	err = pgxscan.Get(ctx, r.db, &newcomer, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrNewcomerNotFound
		}
		return nil, fmt.Errorf("failed to fetch newcomer: %w", err)
	}

	return &newcomer, nil
}

func (r *NewcomerRepository) CreateNewcomer(ctx context.Context, newcomer *types.Newcomer) error {
	now := time.Now()
	newcomer.CreatedAt = now
	newcomer.UpdatedAt = now

	newcomerMap := utils.StructToMap(newcomer)
	delete(newcomerMap, "id")

	query, args, err := psql().
		Insert(newcomerTableName).
		SetMap(newcomerMap).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert newcomer query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&newcomer.ID); err != nil {
		return fmt.Errorf("failed to create newcomer: %w", err)
	}

	return nil
}
