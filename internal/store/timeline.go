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

const timelineTableName = "parish.timeline_events"

var timelineColumns = utils.StructTagValues(types.TimelineEvent{})

// TimelineRepository is append-only. There is deliberately no update or
// delete method; history rows are immutable once committed.
type TimelineRepository struct {
	db DB
}

func NewTimelineRepository(db DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// eventInsertSQL stamps the event id and builds its insert statement. Shared
// with the transactional case and note writes, which append events in the
// same transaction as the row they annotate.
func eventInsertSQL(event *types.TimelineEvent) (string, []any, error) {
	event.ID = utils.NanoID()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	eventMap := utils.StructToMap(event)

	return psql().
		Insert(timelineTableName).
		SetMap(eventMap).
		ToSql()
}

func (r *TimelineRepository) Append(ctx context.Context, event *types.TimelineEvent) error {
	query, args, err := eventInsertSQL(event)
	if err != nil {
		return fmt.Errorf("failed to generate insert timeline event query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to append timeline event")
}

func (r *TimelineRepository) Timeline(ctx context.Context, caseID int64) ([]*types.TimelineEvent, error) {
	query, args, err := psql().
		Select(timelineColumns...).
		From(timelineTableName).
		Where(sq.Eq{"case_id": caseID}).
		OrderBy("occurred_at asc", "id asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate timeline query: %w", err)
	}

	events := make([]*types.TimelineEvent, 0)
	if err := pgxscan.Select(ctx, r.db, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch timeline for case %d: %w", caseID, err)
	}

	return events, nil
}
