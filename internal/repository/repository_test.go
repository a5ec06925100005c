package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/entity"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{DSN: InMemoryDSN}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	require.NoError(t, Migrate(ctx, db, nil))
	return db
}

func seedSyllabus(t *testing.T, repo SyllabusRepository, hash string) *entity.Syllabus {
	t.Helper()
	s, created, err := repo.UpsertByHash(context.Background(), NewSyllabus{
		SourcePath:    "/tmp/" + hash + ".txt",
		Filename:      hash + ".txt",
		MimeType:      "text/plain",
		ContentHash:   []byte(hash),
		ExtractedText: "Course Title: " + hash,
	})
	require.NoError(t, err)
	require.True(t, created)
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(context.Background(), db, nil))
	require.NoError(t, HealthCheck(context.Background(), db, time.Second, nil))
}

func TestSyllabus_UpsertByHashDedups(t *testing.T) {
	ctx := context.Background()
	repo := NewSyllabusRepository(newTestDB(t), nil)

	first := seedSyllabus(t, repo, "abc")
	assert.Equal(t, constants.StatusPending, first.Status)

	again, created, err := repo.UpsertByHash(ctx, NewSyllabus{
		SourcePath: "/elsewhere/copy.txt", Filename: "copy.txt", MimeType: "text/plain",
		ContentHash: []byte("abc"), ExtractedText: "same",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "abc.txt", again.Filename)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Course Title: abc", got.ExtractedText)
	assert.Equal(t, []byte("abc"), got.ContentHash)

	list, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSyllabus_GetMissing(t *testing.T) {
	repo := NewSyllabusRepository(newTestDB(t), nil)
	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSyllabus_Transitions(t *testing.T) {
	ctx := context.Background()
	repo := NewSyllabusRepository(newTestDB(t), nil)
	s := seedSyllabus(t, repo, "t1")

	// PENDING cannot jump straight to COMPLETED.
	err := repo.Transition(ctx, s.ID, constants.StatusCompleted, "")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	require.NoError(t, repo.Transition(ctx, s.ID, constants.StatusProcessing, ""))
	require.NoError(t, repo.Transition(ctx, s.ID, constants.StatusFailed, "boom"))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "boom", *got.ErrorMessage)

	// Retry clears the message.
	require.NoError(t, repo.Transition(ctx, s.ID, constants.StatusProcessing, ""))
	require.NoError(t, repo.Transition(ctx, s.ID, constants.StatusCompleted, ""))
	got, err = repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, got.Status)
	assert.Nil(t, got.ErrorMessage)

	// Re-extraction of a completed syllabus.
	require.NoError(t, repo.Transition(ctx, s.ID, constants.StatusProcessing, ""))

	assert.ErrorIs(t, repo.Transition(ctx, s.ID, constants.StatusPending, ""), common.ErrInvalidTransition)
	assert.ErrorIs(t, repo.Transition(ctx, uuid.New(), constants.StatusProcessing, ""), common.ErrNotFound)
}

func TestSyllabus_CountByStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewSyllabusRepository(newTestDB(t), nil)
	a := seedSyllabus(t, repo, "a")
	seedSyllabus(t, repo, "b")
	require.NoError(t, repo.Transition(ctx, a.ID, constants.StatusProcessing, ""))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[constants.ExtractionStatus]int{
		constants.StatusPending:    1,
		constants.StatusProcessing: 1,
	}, counts)

	pending := constants.StatusPending
	list, err := repo.List(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b.txt", list[0].Filename)
}

func TestExtraction_LatestWins(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := seedSyllabus(t, NewSyllabusRepository(db, nil), "x")

	repo := NewExtractionRepository(db, nil).(*extractionRepo)
	clock := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	_, err := repo.Latest(ctx, s.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	first, err := repo.Save(ctx, s.ID, 0.4, constants.ExtractionMethod, []byte(`{"n":1}`))
	require.NoError(t, err)
	second, err := repo.Save(ctx, s.ID, 0.9, constants.ExtractionMethod, []byte(`{"n":2}`))
	require.NoError(t, err)

	latest, err := repo.Latest(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 0.9, latest.ExtractionConfidence)
	assert.JSONEq(t, `{"n":2}`, string(latest.RecordJSON))

	all, err := repo.ListBySyllabus(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestImportantDate_InsertIgnoreAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	syllabi := NewSyllabusRepository(db, nil)
	s1 := seedSyllabus(t, syllabi, "one")
	s2 := seedSyllabus(t, syllabi, "two")
	repo := NewImportantDateRepository(db, nil)

	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	insert := func(sid uuid.UUID, title string, due time.Time) bool {
		created, err := repo.InsertIgnore(ctx, &entity.ImportantDate{
			SyllabusID: sid, Title: title, Category: constants.Exam, DueDate: due, RawDate: due.Format("01/02/2006"),
		})
		require.NoError(t, err)
		return created
	}

	assert.True(t, insert(s1.ID, "Midterm", day(10, 15)))
	assert.False(t, insert(s1.ID, "Midterm", day(10, 15)))
	assert.True(t, insert(s1.ID, "Quiz", day(9, 13)))
	assert.True(t, insert(s2.ID, "Midterm", day(10, 15)))
	assert.True(t, insert(s2.ID, "Final Exam", day(12, 15)))

	all, err := repo.List(ctx, DateFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Quiz", all[0].Title)
	assert.Equal(t, "one.txt", all[0].SourceFilename)
	assert.True(t, all[0].DueDate.Equal(day(9, 13)))

	only, err := repo.List(ctx, DateFilter{SyllabusID: &s2.ID})
	require.NoError(t, err)
	assert.Len(t, only, 2)

	from, to := day(10, 1), day(10, 31)
	window, err := repo.List(ctx, DateFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 2)
	for _, r := range window {
		assert.Equal(t, "Midterm", r.Title)
	}
}
