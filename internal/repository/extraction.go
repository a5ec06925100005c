package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/entity"
)

const extractionsTable = "syllabus_extractions"

var extractionColumns = []string{
	"id", "syllabus_id", "extraction_confidence", "extraction_method", "record_json", "extracted_at",
}

type ExtractionRepository interface {
	// Save appends a new extraction row; prior rows are never modified.
	Save(ctx context.Context, syllabusID uuid.UUID, confidence float64, method string, recordJSON []byte) (*entity.Extraction, error)
	Latest(ctx context.Context, syllabusID uuid.UUID) (*entity.Extraction, error)
	ListBySyllabus(ctx context.Context, syllabusID uuid.UUID) ([]entity.Extraction, error)
}

type extractionRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewExtractionRepository(db *DB, log *slog.Logger) ExtractionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractionRepo{db: db, log: log, now: utcNow}
}

func (r *extractionRepo) Save(ctx context.Context, syllabusID uuid.UUID, confidence float64, method string, recordJSON []byte) (*entity.Extraction, error) {
	e := &entity.Extraction{
		ID:                   uuid.New(),
		SyllabusID:           syllabusID,
		ExtractionConfidence: confidence,
		ExtractionMethod:     method,
		RecordJSON:           recordJSON,
		ExtractedAt:          r.now(),
	}
	q, args := r.db.Builder().Insert(extractionsTable).
		Columns(extractionColumns...).
		Values(e.ID, e.SyllabusID, e.ExtractionConfidence, e.ExtractionMethod, string(recordJSON), e.ExtractedAt).
		Query()

	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.log.Error("extraction insert failed", "syllabus_id", syllabusID, "error", err)
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "insert extraction")
	}
	r.log.Info("extraction saved", "syllabus_id", syllabusID, "extraction_id", e.ID, "confidence", confidence)
	return e, nil
}

func (r *extractionRepo) Latest(ctx context.Context, syllabusID uuid.UUID) (*entity.Extraction, error) {
	list, err := r.list(ctx, syllabusID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("extraction for syllabus %s: %w", syllabusID, common.ErrNotFound)
	}
	return &list[0], nil
}

func (r *extractionRepo) ListBySyllabus(ctx context.Context, syllabusID uuid.UUID) ([]entity.Extraction, error) {
	return r.list(ctx, syllabusID, 0)
}

// list returns the extractions newest first.
func (r *extractionRepo) list(ctx context.Context, syllabusID uuid.UUID, limit int) ([]entity.Extraction, error) {
	b := r.db.Builder()
	sel := b.Select(extractionColumns...).
		From(b.Table(extractionsTable)).
		Where(entsql.EQ("syllabus_id", syllabusID)).
		OrderBy(entsql.Desc("extracted_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	q, args := sel.Query()

	var out []entity.Extraction
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var (
			e   entity.Extraction
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.SyllabusID, &e.ExtractionConfidence, &e.ExtractionMethod, &raw, &e.ExtractedAt); err != nil {
			return err
		}
		e.RecordJSON = raw
		out = append(out, e)
		return nil
	})
	if err != nil {
		r.log.Error("extraction lookup failed", "syllabus_id", syllabusID, "error", err)
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "list extractions")
	}
	return out, nil
}
