package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/metrics"
	"github.com/joseph-ayodele/syllabus-tracker/internal/repository"
	"github.com/joseph-ayodele/syllabus-tracker/internal/syllabus"
)

const syllabusText = `Course Title: Data Structures
Course Code: CS 201
Instructor: Dr. Ada Park
Email: apark@example.edu

Midterm: 10/15/2024
Quiz 1: 9/13/24
Project proposal: 2024-11-01
Final Exam: 12/15/2024
Homework 3: 13/45/2024
`

type fixture struct {
	syllabi     repository.SyllabusRepository
	extractions repository.ExtractionRepository
	dates       repository.ImportantDateRepository
	processor   *Processor
	projector   *Projector
	metrics     *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: repository.InMemoryDSN}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })
	require.NoError(t, repository.Migrate(ctx, db, nil))

	f := &fixture{
		syllabi:     repository.NewSyllabusRepository(db, nil),
		extractions: repository.NewExtractionRepository(db, nil),
		dates:       repository.NewImportantDateRepository(db, nil),
		metrics:     metrics.New(prometheus.NewRegistry()),
	}
	extractor := syllabus.NewExtractor(syllabus.DefaultCatalog())
	f.processor = NewProcessor(nil, extractor, f.syllabi, f.extractions, f.metrics, time.Second)
	f.projector = NewProjector(nil, f.syllabi, f.extractions, f.dates, f.metrics)
	return f
}

func (f *fixture) seed(t *testing.T, text string) uuid.UUID {
	t.Helper()
	s, _, err := f.syllabi.UpsertByHash(context.Background(), repository.NewSyllabus{
		SourcePath:    "/syllabi/cs201.txt",
		Filename:      "cs201.txt",
		MimeType:      "text/plain",
		ContentHash:   []byte(text),
		ExtractedText: text,
	})
	require.NoError(t, err)
	return s.ID
}

func TestProcessSyllabus_Completes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, syllabusText)

	res, err := f.processor.ProcessSyllabus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, res.SyllabusID)
	assert.Greater(t, res.Confidence, 0.0)
	assert.Equal(t, 8, res.Dates)

	s, err := f.syllabi.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, s.Status)
	assert.Nil(t, s.ErrorMessage)

	ext, err := f.extractions.Latest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.ExtractionID, ext.ID)
	require.NoError(t, syllabus.ValidateRecordJSON(ext.RecordJSON))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(ext.RecordJSON, &rec))
	assert.Equal(t, "Data Structures", rec["course_title"])
	assert.Equal(t, "2024-12-15", rec["final_exam_date"])
}

func TestProcessSyllabus_RerunAddsExtraction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, syllabusText)

	first, err := f.processor.ProcessSyllabus(ctx, id)
	require.NoError(t, err)
	second, err := f.processor.ProcessSyllabus(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, first.ExtractionID, second.ExtractionID)

	all, err := f.extractions.ListBySyllabus(ctx, id)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProcessSyllabus_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := f.processor.ProcessSyllabus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProcessSyllabus_FailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, syllabusText)
	f.processor.extractor = syllabus.NewExtractor(nil)

	_, err := f.processor.ProcessSyllabus(ctx, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, syllabus.ErrNoCatalog)

	s, err := f.syllabi.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, s.Status)
	require.NotNil(t, s.ErrorMessage)
	assert.Contains(t, *s.ErrorMessage, syllabus.ErrNoCatalog.Error())

	// FAILED may be retried.
	f.processor.extractor = syllabus.NewExtractor(syllabus.DefaultCatalog())
	_, err = f.processor.ProcessSyllabus(ctx, id)
	require.NoError(t, err)
}

// completeFails rejects the first move to COMPLETED.
type completeFails struct {
	repository.SyllabusRepository
	failed bool
}

var errWriteLost = errors.New("write lost")

func (r *completeFails) Transition(ctx context.Context, id uuid.UUID, to constants.ExtractionStatus, msg string) error {
	if to == constants.StatusCompleted && !r.failed {
		r.failed = true
		return errWriteLost
	}
	return r.SyllabusRepository.Transition(ctx, id, to, msg)
}

func TestProcessSyllabus_CompleteWriteFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, syllabusText)
	f.processor.syllabi = &completeFails{SyllabusRepository: f.syllabi}

	_, err := f.processor.ProcessSyllabus(ctx, id)
	assert.ErrorIs(t, err, errWriteLost)

	s, err := f.syllabi.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, s.Status)
	require.NotNil(t, s.ErrorMessage)
	assert.Contains(t, *s.ErrorMessage, errWriteLost.Error())

	_, err = f.processor.ProcessSyllabus(ctx, id)
	require.NoError(t, err)
	s, err = f.syllabi.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, s.Status)
}

func TestMaterialize_RequiresCompleted(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, syllabusText)

	_, err := f.projector.Materialize(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrNotCompleted)
}

func TestMaterialize_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.seed(t, syllabusText)
	_, err := f.processor.ProcessSyllabus(ctx, id)
	require.NoError(t, err)

	report, err := f.projector.Materialize(ctx, id)
	require.NoError(t, err)
	// The midterm line lands in both exam_dates and midterm_dates.
	assert.Equal(t, 6, report.Created)
	assert.Equal(t, 1, report.Duplicates)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "13/45/2024", report.Failed[0].Event.Date)

	again, err := f.projector.Materialize(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 7, again.Duplicates)

	rows, err := f.dates.List(ctx, repository.DateFilter{SyllabusID: &id})
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "cs201.txt", rows[0].SourceFilename)
	assert.True(t, rows[0].DueDate.Equal(time.Date(2024, 9, 13, 0, 0, 0, 0, time.UTC)))

	last := rows[len(rows)-1]
	assert.Equal(t, "Final Exam", last.Title)
	assert.Equal(t, constants.Final, last.Category)
	assert.Equal(t, "Final Exam from cs201.txt", last.Description)
}
