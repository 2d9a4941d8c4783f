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

const memberTableName = "parish.members"

var memberColumns = utils.StructTagValues(types.Member{})

// MemberRepository is a read-only directory from the engine's point of
// view; member CRUD lives elsewhere in the platform.
type MemberRepository struct {
	db DB
}

func NewMemberRepository(db DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Member(ctx context.Context, memberID int64) (*types.Member, error) {
	query, args, err := psql().
		Select(memberColumns...).
		From(memberTableName).
		Where(sq.Eq{"id": memberID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate member query: %w", err)
	}

	var member types.Member
	err = pgxscan.Get(ctx, r.db, &member, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}

	return &member, nil
}

// CreateMember exists for the seed tool; member CRUD proper lives in the
// wider platform.
func (r *MemberRepository) CreateMember(ctx context.Context, member *types.Member) error {
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	memberMap := utils.StructToMap(member)
	delete(memberMap, "id")

	query, args, err := psql().
		Insert(memberTableName).
		SetMap(memberMap).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert member query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&member.ID); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}

	return nil
}
