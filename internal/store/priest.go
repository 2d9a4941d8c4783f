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

const priestTableName = "parish.priests"

var priestColumns = utils.StructTagValues(types.Priest{})

type PriestRepository struct {
	db DB
}

func NewPriestRepository(db DB) *PriestRepository {
	return &PriestRepository{db: db}
}

func (r *PriestRepository) Priest(ctx context.Context, priestID int64) (*types.Priest, error) {
	query, args, err := psql().
		Select(priestColumns...).
		From(priestTableName).
		Where(sq.Eq{"id": priestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate priest query: %w", err)
	}

	var priest types.Priest
	err = pgxscan.Get(ctx, r.db, &priest, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPriestNotFound
		}
		return nil, fmt.Errorf("failed to fetch priest: %w", err)
	}

	return &priest, nil
}

func (r *PriestRepository) AllPriests(ctx context.Context) ([]*types.Priest, error) {
	query, args, err := psql().
		Select(priestColumns...).
		From(priestTableName).
		OrderBy("name asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate priests query: %w", err)
	}

	priests := make([]*types.Priest, 0)
	if err := pgxscan.Select(ctx, r.db, &priests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch priests: %w", err)
	}

	return priests, nil
}

func (r *PriestRepository) CreatePriest(ctx context.Context, priest *types.Priest) error {
	priest.CreatedAt = time.Now()

	priestMap := utils.StructToMap(priest)
	delete(priestMap, "id")

	query, args, err := psql().
		Insert(priestTableName).
		SetMap(priestMap).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert priest query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&priest.ID); err != nil {
		return fmt.Errorf("failed to create priest: %w", err)
	}

	return nil
}
