package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/entity"
)

const importantDatesTable = "important_dates"

var importantDateColumns = []string{
	"id", "syllabus_id", "extraction_id", "title", "category",
	"due_date", "raw_date", "description", "created_at",
}

// DateFilter narrows ImportantDateRepository.List. Nil fields do not filter.
type DateFilter struct {
	SyllabusID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

type ImportantDateRepository interface {
	// InsertIgnore stores d unless (syllabus_id, title, due_date) already exists.
	InsertIgnore(ctx context.Context, d *entity.ImportantDate) (created bool, err error)
	List(ctx context.Context, f DateFilter) ([]entity.ImportantDateRow, error)
}

type importantDateRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewImportantDateRepository(db *DB, log *slog.Logger) ImportantDateRepository {
	if log == nil {
		log = slog.Default()
	}
	return &importantDateRepo{db: db, log: log, now: utcNow}
}

func (r *importantDateRepo) InsertIgnore(ctx context.Context, d *entity.ImportantDate) (bool, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = r.now()
	}
	d.DueDate = dateOnly(d.DueDate)

	var extractionID any
	if d.ExtractionID != nil {
		extractionID = *d.ExtractionID
	}

	q, args := r.db.Builder().Insert(importantDatesTable).
		Columns(importantDateColumns...).
		Values(d.ID, d.SyllabusID, extractionID, d.Title, string(d.Category),
			d.DueDate, d.RawDate, d.Description, d.CreatedAt).
		OnConflict(entsql.ConflictColumns("syllabus_id", "title", "due_date"), entsql.DoNothing()).
		Query()

	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.log.Error("important_date insert failed", "syllabus_id", d.SyllabusID, "title", d.Title, "error", err)
		return false, common.WrapError(errors.Join(common.ErrDatabase, err), "insert important date")
	}
	return n > 0, nil
}

func (r *importantDateRepo) List(ctx context.Context, f DateFilter) ([]entity.ImportantDateRow, error) {
	b := r.db.Builder()
	d := b.Table(importantDatesTable)
	s := b.Table(syllabiTable).As("s")

	cols := make([]string, 0, len(importantDateColumns)+1)
	for _, c := range importantDateColumns {
		cols = append(cols, d.C(c))
	}
	cols = append(cols, s.C("filename"))

	var preds []*entsql.Predicate
	if f.SyllabusID != nil {
		preds = append(preds, entsql.EQ(d.C("syllabus_id"), *f.SyllabusID))
	}
	if f.From != nil {
		preds = append(preds, entsql.GTE(d.C("due_date"), dateOnly(*f.From)))
	}
	if f.To != nil {
		preds = append(preds, entsql.LTE(d.C("due_date"), dateOnly(*f.To)))
	}

	sel := b.Select(cols...).
		From(d).
		Join(s).On(d.C("syllabus_id"), s.C("id")).
		OrderBy(d.C("due_date"), d.C("title"))
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	q, args := sel.Query()

	var out []entity.ImportantDateRow
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var (
			row      entity.ImportantDateRow
			extID    uuid.NullUUID
			category string
		)
		if err := rows.Scan(&row.ID, &row.SyllabusID, &extID, &row.Title, &category,
			&row.DueDate, &row.RawDate, &row.Description, &row.CreatedAt, &row.SourceFilename); err != nil {
			return err
		}
		if extID.Valid {
			id := extID.UUID
			row.ExtractionID = &id
		}
		row.Category = constants.DateCategory(category)
		out = append(out, row)
		return nil
	})
	if err != nil {
		r.log.Error("important_date list failed", "error", err)
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "list important dates")
	}
	return out, nil
}

// dateOnly drops the clock so equal calendar days compare equal.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
