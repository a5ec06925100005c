package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/entity"
)

const syllabiTable = "syllabi"

var syllabusColumns = []string{
	"id", "source_path", "filename", "mime_type", "content_hash",
	"extracted_text", "status", "error_message", "uploaded_at", "updated_at",
}

// NewSyllabus is the input to SyllabusRepository.UpsertByHash.
type NewSyllabus struct {
	SourcePath    string
	Filename      string
	MimeType      string
	ContentHash   []byte
	ExtractedText string
}

type SyllabusRepository interface {
	// UpsertByHash inserts a PENDING syllabus unless one with the same content
	// hash exists, in which case the existing row is returned with created=false.
	UpsertByHash(ctx context.Context, in NewSyllabus) (s *entity.Syllabus, created bool, err error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Syllabus, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.Syllabus, error)
	List(ctx context.Context, status *constants.ExtractionStatus) ([]entity.Syllabus, error)
	// Transition moves a syllabus to status to. errMsg is stored for FAILED and cleared otherwise.
	Transition(ctx context.Context, id uuid.UUID, to constants.ExtractionStatus, errMsg string) error
	CountByStatus(ctx context.Context) (map[constants.ExtractionStatus]int, error)
}

type syllabusRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewSyllabusRepository(db *DB, log *slog.Logger) SyllabusRepository {
	if log == nil {
		log = slog.Default()
	}
	return &syllabusRepo{db: db, log: log, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func (r *syllabusRepo) UpsertByHash(ctx context.Context, in NewSyllabus) (*entity.Syllabus, bool, error) {
	now := r.now()
	s := &entity.Syllabus{
		ID:            uuid.New(),
		SourcePath:    in.SourcePath,
		Filename:      in.Filename,
		MimeType:      in.MimeType,
		ContentHash:   in.ContentHash,
		ExtractedText: in.ExtractedText,
		Status:        constants.StatusPending,
		UploadedAt:    now,
		UpdatedAt:     now,
	}

	q, args := r.db.Builder().Insert(syllabiTable).
		Columns(syllabusColumns...).
		Values(s.ID, s.SourcePath, s.Filename, s.MimeType, s.ContentHash,
			s.ExtractedText, string(s.Status), nil, s.UploadedAt, s.UpdatedAt).
		OnConflict(entsql.ConflictColumns("content_hash"), entsql.DoNothing()).
		Query()

	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.log.Error("syllabus insert failed", "filename", in.Filename, "error", err)
		return nil, false, common.WrapError(errors.Join(common.ErrDatabase, err), "insert syllabus")
	}
	if n == 0 {
		existing, err := r.GetByHash(ctx, in.ContentHash)
		if err != nil {
			return nil, false, err
		}
		r.log.Debug("syllabus already ingested", "syllabus_id", existing.ID, "filename", in.Filename)
		return existing, false, nil
	}
	r.log.Info("syllabus created", "syllabus_id", s.ID, "filename", s.Filename)
	return s, true, nil
}

func (r *syllabusRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Syllabus, error) {
	return r.getOne(ctx, entsql.EQ("id", id), id.String())
}

func (r *syllabusRepo) GetByHash(ctx context.Context, hash []byte) (*entity.Syllabus, error) {
	return r.getOne(ctx, entsql.EQ("content_hash", hash), fmt.Sprintf("hash %x", hash))
}

func (r *syllabusRepo) getOne(ctx context.Context, p *entsql.Predicate, what string) (*entity.Syllabus, error) {
	b := r.db.Builder()
	q, args := b.Select(syllabusColumns...).From(b.Table(syllabiTable)).Where(p).Limit(1).Query()

	var out *entity.Syllabus
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		s, err := scanSyllabus(rows)
		out = s
		return err
	})
	if err != nil {
		r.log.Error("syllabus lookup failed", "key", what, "error", err)
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "get syllabus")
	}
	if out == nil {
		return nil, fmt.Errorf("syllabus %s: %w", what, common.ErrNotFound)
	}
	return out, nil
}

func (r *syllabusRepo) List(ctx context.Context, status *constants.ExtractionStatus) ([]entity.Syllabus, error) {
	b := r.db.Builder()
	sel := b.Select(syllabusColumns...).From(b.Table(syllabiTable)).OrderBy("uploaded_at", "id")
	if status != nil {
		sel = sel.Where(entsql.EQ("status", string(*status)))
	}
	q, args := sel.Query()

	var out []entity.Syllabus
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		s, err := scanSyllabus(rows)
		if err != nil {
			return err
		}
		out = append(out, *s)
		return nil
	})
	if err != nil {
		r.log.Error("syllabus list failed", "error", err)
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "list syllabi")
	}
	return out, nil
}

func (r *syllabusRepo) Transition(ctx context.Context, id uuid.UUID, to constants.ExtractionStatus, errMsg string) error {
	sources := constants.SourcesFor(to)
	if len(sources) == 0 {
		return fmt.Errorf("no status moves into %s: %w", to, common.ErrInvalidTransition)
	}
	from := make([]any, len(sources))
	for i, s := range sources {
		from[i] = string(s)
	}

	var msg any
	if to == constants.StatusFailed {
		msg = errMsg
	}

	q, args := r.db.Builder().Update(syllabiTable).
		Set("status", string(to)).
		Set("error_message", msg).
		Set("updated_at", r.now()).
		Where(entsql.And(entsql.EQ("id", id), entsql.In("status", from...))).
		Query()

	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.log.Error("syllabus transition failed", "syllabus_id", id, "to", to, "error", err)
		return common.WrapError(errors.Join(common.ErrDatabase, err), "update syllabus status")
	}
	if n == 0 {
		cur, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		r.log.Warn("syllabus transition rejected", "syllabus_id", id, "from", cur.Status, "to", to)
		return fmt.Errorf("%s -> %s: %w", cur.Status, to, common.ErrInvalidTransition)
	}

	if to == constants.StatusFailed {
		r.log.Warn("syllabus status changed", "syllabus_id", id, "status", to, "error", errMsg)
	} else {
		r.log.Info("syllabus status changed", "syllabus_id", id, "status", to)
	}
	return nil
}

func (r *syllabusRepo) CountByStatus(ctx context.Context) (map[constants.ExtractionStatus]int, error) {
	b := r.db.Builder()
	q, args := b.Select("status", entsql.Count("*")).From(b.Table(syllabiTable)).GroupBy("status").Query()

	out := map[constants.ExtractionStatus]int{}
	err := r.db.query(ctx, q, args, func(rows *entsql.Rows) error {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return err
		}
		out[constants.ExtractionStatus(status)] = n
		return nil
	})
	if err != nil {
		r.log.Error("syllabus count failed", "error", err)
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "count syllabi")
	}
	return out, nil
}

func scanSyllabus(rows *entsql.Rows) (*entity.Syllabus, error) {
	var (
		s      entity.Syllabus
		status string
		errMsg *string
	)
	if err := rows.Scan(&s.ID, &s.SourcePath, &s.Filename, &s.MimeType, &s.ContentHash,
		&s.ExtractedText, &status, &errMsg, &s.UploadedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = constants.ExtractionStatus(status)
	s.ErrorMessage = errMsg
	return &s, nil
}
