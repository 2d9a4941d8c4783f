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

const noteTableName = "parish.case_notes"

var noteColumns = utils.StructTagValues(types.Note{})

type NoteRepository struct {
	db DB
}

func NewNoteRepository(db DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// CreateNote writes the note and its NoteAdded timeline event in one
// transaction.
func (r *NoteRepository) CreateNote(ctx context.Context, note *types.Note, event *types.TimelineEvent) error {
	note.ID = utils.NanoID()
	note.CreatedAt = time.Now()

	noteMap := utils.StructToMap(note)

	noteQuery, noteArgs, err := psql().
		Insert(noteTableName).
		SetMap(noteMap).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert note query: %w", err)
	}

	eventQuery, eventArgs, err := eventInsertSQL(event)
	if err != nil {
		return fmt.Errorf("failed to generate note event query: %w", err)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, noteQuery, noteArgs...); err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}

		if _, err := tx.Exec(ctx, eventQuery, eventArgs...); err != nil {
			return fmt.Errorf("failed to append note event: %w", err)
		}

		return nil
	})
}

func (r *NoteRepository) NotesByCase(ctx context.Context, caseID int64, includeRestricted bool) ([]*types.Note, error) {
	builder := psql().
		Select(noteColumns...).
		From(noteTableName).
		Where(sq.Eq{"case_id": caseID}).
		OrderBy("created_at asc")

	if !includeRestricted {
		builder = builder.Where(sq.Eq{"restricted": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate notes query: %w", err)
	}

	notes := make([]*types.Note, 0)
	if err := pgxscan.Select(ctx, r.db, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch notes for case %d: %w", caseID, err)
	}

	return notes, nil
}
