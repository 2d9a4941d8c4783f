package store

import (
	"context"
	"fmt"
	"time"

	"parishcore/internal/utils"
	"parishcore/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

const caseTableName = "parish.sponsorship_cases"

var caseColumns = utils.StructTagValues(types.SponsorshipCase{})

type CaseRepository struct {
	db DB
}

func NewCaseRepository(db DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) Case(ctx context.Context, caseID int64) (*types.SponsorshipCase, error) {
	query, args, err := psql().
		Select(caseColumns...).
		From(caseTableName).
		Where(sq.Eq{"id": caseID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate case query: %w", err)
	}

	var c types.SponsorshipCase
	err = pgxscan.Get(ctx, r.db, &c, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to fetch case: %w", err)
	}

	return &c, nil
}

func (r *CaseRepository) CasesByStatus(ctx context.Context, status types.CaseStatus) ([]*types.SponsorshipCase, error) {
	query, args, err := psql().
		Select(caseColumns...).
		From(caseTableName).
		Where(sq.Eq{"status": status}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cases-by-status query: %w", err)
	}

	cases := make([]*types.SponsorshipCase, 0)
	if err := pgxscan.Select(ctx, r.db, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch cases by status: %w", err)
	}

	return cases, nil
}

func (r *CaseRepository) CasesBySponsor(ctx context.Context, sponsorID int64) ([]*types.SponsorshipCase, error) {
	query, args, err := psql().
		Select(caseColumns...).
		From(caseTableName).
		Where(sq.Eq{"sponsor_id": sponsorID}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cases-by-sponsor query: %w", err)
	}

	cases := make([]*types.SponsorshipCase, 0)
	if err := pgxscan.Select(ctx, r.db, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch cases by sponsor: %w", err)
	}

	return cases, nil
}

func (r *CaseRepository) CasesByRound(ctx context.Context, roundID int64) ([]*types.SponsorshipCase, error) {
	query, args, err := psql().
		Select(caseColumns...).
		From(caseTableName).
		Where(sq.Eq{"budget_round_id": roundID}).
		OrderBy("id asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cases-by-round query: %w", err)
	}

	cases := make([]*types.SponsorshipCase, 0)
	if err := pgxscan.Select(ctx, r.db, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch cases by round: %w", err)
	}

	return cases, nil
}

func (r *CaseRepository) CreateCase(ctx context.Context, c *types.SponsorshipCase) error {
	now := time.Now()
	c.Status = types.CaseStatusDraft
	c.LastStatus = types.LastStatusPending
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now

	if c.BudgetSlots == 0 {
		c.BudgetSlots = 1
	}

	caseMap := utils.StructToMap(c)
	delete(caseMap, "id")

	query, args, err := psql().
		Insert(caseTableName).
		SetMap(caseMap).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert case query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}

	return nil
}

// ApplyTransition persists a status transition and its timeline event in one
// transaction, under optimistic concurrency. The status write only lands when
// the stored version still matches the snapshot the caller read; a stale
// snapshot gets ErrConcurrentModification. Either both rows commit or neither
// does, so a transition can never land without its audit event.
func (r *CaseRepository) ApplyTransition(ctx context.Context, c *types.SponsorshipCase, event *types.TimelineEvent) error {
	now := time.Now()

	updateQuery, updateArgs, err := psql().
		Update(caseTableName).
		SetMap(map[string]any{
			"status":             c.Status,
			"last_status":        c.LastStatus,
			"last_status_reason": c.LastStatusReason,
			"budget_round_id":    c.BudgetRoundID,
			"activated_at":       c.ActivatedAt,
			"reminder_next_due":  c.ReminderNextDue,
			"updated_by":         c.UpdatedBy,
			"updated_at":         now,
			"version":            c.Version + 1,
		}).
		Where(sq.Eq{"id": c.ID, "version": c.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update status query for case %d: %w", c.ID, err)
	}

	eventQuery, eventArgs, err := eventInsertSQL(event)
	if err != nil {
		return fmt.Errorf("failed to generate transition event query for case %d: %w", c.ID, err)
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update case %d status: %w", c.ID, err)
		}

		if tag.RowsAffected() == 0 {
			return fmt.Errorf("case %d version %d: %w", c.ID, c.Version, types.ErrConcurrentModification)
		}

		if _, err := tx.Exec(ctx, eventQuery, eventArgs...); err != nil {
			return fmt.Errorf("failed to append transition event for case %d: %w", c.ID, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	c.Version++
	c.UpdatedAt = now

	return nil
}

// DueCases returns Active cases whose reminder is due at asOf, most overdue
// first, case id as the tie-break so sweep batches are reproducible.
func (r *CaseRepository) DueCases(ctx context.Context, asOf time.Time, limit uint64) ([]*types.SponsorshipCase, error) {
	builder := psql().
		Select(caseColumns...).
		From(caseTableName).
		Where(sq.Eq{"status": types.CaseStatusActive}).
		Where(sq.LtOrEq{"reminder_next_due": asOf}).
		OrderBy("reminder_next_due asc", "id asc")

	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate due cases query: %w", err)
	}

	cases := make([]*types.SponsorshipCase, 0)
	if err := pgxscan.Select(ctx, r.db, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch due cases: %w", err)
	}

	return cases, nil
}

// MarkReminderSent advances the reminder timestamps only while the case is
// still Active and still due at asOf. The due-check and the write are one
// statement, so two overlapping sweeps cannot both fire for the same due
// date: the second one sees zero rows and gets ErrReminderNotDue.
func (r *CaseRepository) MarkReminderSent(ctx context.Context, caseID int64, channel types.ReminderChannel, sentAt time.Time, nextDue *time.Time) error {
	query, args, err := psql().
		Update(caseTableName).
		SetMap(map[string]any{
			"reminder_channel":   channel,
			"reminder_last_sent": sentAt,
			"reminder_next_due":  nextDue,
			"updated_at":         time.Now(),
		}).
		Where(sq.Eq{"id": caseID, "status": types.CaseStatusActive}).
		Where(sq.LtOrEq{"reminder_next_due": sentAt}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate mark reminder sent query for case %d: %w", caseID, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent for case %d: %w", caseID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("case %d: %w", caseID, types.ErrReminderNotDue)
	}

	return nil
}

// UsedSlots is the read-time aggregate behind budget accounting: the sum of
// budget_slots over cases currently holding capacity in the round. There is
// no stored counter to drift.
func (r *CaseRepository) UsedSlots(ctx context.Context, roundID int64) (int, error) {
	query, args, err := psql().
		Select("coalesce(sum(budget_slots), 0)").
		From(caseTableName).
		Where(sq.Eq{
			"budget_round_id": roundID,
			"status": []types.CaseStatus{
				types.CaseStatusApproved,
				types.CaseStatusActive,
				types.CaseStatusSuspended,
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate used slots query: %w", err)
	}

	var used int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&used); err != nil {
		return 0, fmt.Errorf("failed to compute used slots for round %d: %w", roundID, err)
	}

	return used, nil
}

func (r *CaseRepository) CountByStatus(ctx context.Context) (map[types.CaseStatus]int, error) {
	query, args, err := psql().
		Select("status", "count(*)").
		From(caseTableName).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate status counts query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count cases by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.CaseStatus]int)
	for rows.Next() {
		var status types.CaseStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// ActivatedInMonth counts cases whose first activation fell inside the
// calendar month containing asOf.
func (r *CaseRepository) ActivatedInMonth(ctx context.Context, asOf time.Time) (int, error) {
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)

	query, args, err := psql().
		Select("count(*)").
		From(caseTableName).
		Where(sq.GtOrEq{"activated_at": monthStart}).
		Where(sq.Lt{"activated_at": nextMonth}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate month executed query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activated cases: %w", err)
	}

	return count, nil
}

// UnassignedActive returns Active cases with no budget round, which the
// metrics aggregator surfaces as alerts.
func (r *CaseRepository) UnassignedActive(ctx context.Context) ([]*types.SponsorshipCase, error) {
	query, args, err := psql().
		Select(caseColumns...).
		From(caseTableName).
		Where(sq.Eq{"status": types.CaseStatusActive, "budget_round_id": nil}).
		OrderBy("id asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate unassigned active query: %w", err)
	}

	cases := make([]*types.SponsorshipCase, 0)
	if err := pgxscan.Select(ctx, r.db, &cases, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch unassigned active cases: %w", err)
	}

	return cases, nil
}
