package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"parishcore/internal/utils"
	"parishcore/pkg/types"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaseMock(t *testing.T) (*CaseRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewCaseRepository(mock), mock
}

func caseRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "sponsor_id", "beneficiary_name", "monthly_amount_cents",
		"frequency", "start_date", "status", "last_status", "budget_slots",
		"reminder_channel", "version", "created_at", "updated_at",
	})
}

func addCaseRow(rows *pgxmock.Rows, id int64, status types.CaseStatus) *pgxmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, int64(1), utils.StringPtr("Tadros family"), int64(5000),
		string(types.FrequencyMonthly), now, string(status), string(types.LastStatusPending), 1,
		string(types.ChannelEmail), 1, now, now,
	)
}

func TestCaseRepository_Case(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM parish.sponsorship_cases WHERE id = \$1`).
					WithArgs(int64(7)).
					WillReturnRows(addCaseRow(caseRows(), 7, types.CaseStatusActive))
			},
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM parish.sponsorship_cases`).
					WithArgs(int64(7)).
					WillReturnRows(caseRows())
			},
			wantErr: types.ErrCaseNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newCaseMock(t)
			tt.setup(mock)

			c, err := repo.Case(context.Background(), 7)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), c.ID)
				assert.Equal(t, types.CaseStatusActive, c.Status)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCaseRepository_CreateCase(t *testing.T) {
	repo, mock := newCaseMock(t)

	mock.ExpectQuery(`INSERT INTO parish.sponsorship_cases .+ RETURNING id`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	c := &types.SponsorshipCase{
		SponsorID:          1,
		BeneficiaryName:    utils.StringPtr("Tadros family"),
		MonthlyAmountCents: 5000,
		Frequency:          types.FrequencyMonthly,
		StartDate:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	err := repo.CreateCase(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, int64(42), c.ID)
	assert.Equal(t, types.CaseStatusDraft, c.Status)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, 1, c.BudgetSlots, "slot count defaults to one")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func transitionEvent(caseID int64) *types.TimelineEvent {
	from := types.CaseStatusSubmitted
	to := types.CaseStatusApproved
	return &types.TimelineEvent{
		CaseID:     caseID,
		EventType:  types.EventApproval,
		FromStatus: &from,
		ToStatus:   &to,
		Actor:      "admin",
		OccurredAt: time.Now(),
	}
}

func TestCaseRepository_ApplyTransition(t *testing.T) {
	t.Run("commits status and event together", func(t *testing.T) {
		repo, mock := newCaseMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE parish.sponsorship_cases SET .+ WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`INSERT INTO parish.timeline_events`).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		c := &types.SponsorshipCase{
			ID:      7,
			Status:  types.CaseStatusApproved,
			Version: 3,
		}
		err := repo.ApplyTransition(context.Background(), c, transitionEvent(7))
		require.NoError(t, err)
		assert.Equal(t, 4, c.Version)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version rolls back", func(t *testing.T) {
		repo, mock := newCaseMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE parish.sponsorship_cases SET .+ WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		c := &types.SponsorshipCase{
			ID:      7,
			Status:  types.CaseStatusApproved,
			Version: 3,
		}
		err := repo.ApplyTransition(context.Background(), c, transitionEvent(7))
		assert.ErrorIs(t, err, types.ErrConcurrentModification)
		assert.Equal(t, 3, c.Version, "snapshot untouched on conflict")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed event insert rolls back the status write", func(t *testing.T) {
		repo, mock := newCaseMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE parish.sponsorship_cases SET .+ WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`INSERT INTO parish.timeline_events`).
			WillReturnError(errors.New("insert failed"))
		mock.ExpectRollback()

		c := &types.SponsorshipCase{
			ID:      7,
			Status:  types.CaseStatusApproved,
			Version: 3,
		}
		err := repo.ApplyTransition(context.Background(), c, transitionEvent(7))
		require.Error(t, err)
		assert.Equal(t, 3, c.Version, "snapshot untouched on rollback")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCaseRepository_DueCases(t *testing.T) {
	repo, mock := newCaseMock(t)

	rows := addCaseRow(caseRows(), 2, types.CaseStatusActive)
	rows = addCaseRow(rows, 5, types.CaseStatusActive)
	mock.ExpectQuery(`SELECT .+ FROM parish.sponsorship_cases WHERE status = \$1 AND reminder_next_due <= \$2 ORDER BY reminder_next_due asc, id asc LIMIT 50`).
		WithArgs(types.CaseStatusActive, pgxmock.AnyArg()).
		WillReturnRows(rows)

	due, err := repo.DueCases(context.Background(), time.Now(), 50)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, int64(2), due[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepository_MarkReminderSent(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{name: "due", rows: 1},
		{name: "not due or not active", rows: 0, wantErr: types.ErrReminderNotDue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newCaseMock(t)

			mock.ExpectExec(`UPDATE parish.sponsorship_cases SET .+ WHERE id = \$\d+ AND status = \$\d+ AND reminder_next_due <= \$\d+`).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))

			sentAt := time.Now()
			next := sentAt.AddDate(0, 1, 0)
			err := repo.MarkReminderSent(context.Background(), 7, types.ChannelEmail, sentAt, &next)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCaseRepository_UsedSlots(t *testing.T) {
	repo, mock := newCaseMock(t)

	mock.ExpectQuery(`SELECT coalesce\(sum\(budget_slots\), 0\) FROM parish.sponsorship_cases`).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(4))

	used, err := repo.UsedSlots(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, used)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepository_CountByStatus(t *testing.T) {
	repo, mock := newCaseMock(t)

	rows := pgxmock.NewRows([]string{"status", "count"}).
		AddRow(string(types.CaseStatusActive), 3).
		AddRow(string(types.CaseStatusDraft), 1)
	mock.ExpectQuery(`SELECT status, count\(\*\) FROM parish.sponsorship_cases GROUP BY status`).
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[types.CaseStatus]int{
		types.CaseStatusActive: 3,
		types.CaseStatusDraft:  1,
	}, counts)

	assert.NoError(t, mock.ExpectationsWereMet())
}
