package syllabus

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

const sampleSyllabus = `CS 101 Introduction to Programming
Course Title: Introduction to Programming
Course Code: CS 101
Credits: 3
Semester: Fall 2024

Instructor: Dr. Jane Doe
jane.doe@uni.edu
Phone: 555.123.4567
Office: Engineering Hall 210
Office Hours: Tue 2-4pm
Thu by appointment

Days: MWF
Time: 10:00 - 10:50 AM
Location: Science Center 101

Course Description: An introduction to programming
with a focus on problem solving.

Grading Scale: A 90-100, B 80-89

Grading: Exams: 40%, Homework: 30%, Project = 30%

Schedule:
Homework 1 due: 09/20/2024
Quiz 1: 09/13/2024
Midterm: 10/15/2024
Project presentation: 2024-11-20
Final Exam: 12/15/2024

Required Textbook: Think Python

Website: https://example.edu/cs101
`

func newTestExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	return NewExtractor(DefaultCatalog(), opts...)
}

func TestExtract_EmptyInputDefaults(t *testing.T) {
	rec, err := newTestExtractor(t).Extract(RawText{})
	require.NoError(t, err)

	assert.Equal(t, "", rec.CourseTitle)
	assert.Equal(t, "", rec.ProfessorEmail)
	assert.Nil(t, rec.Credits)
	assert.Nil(t, rec.FinalExamDate)
	assert.Equal(t, 0.0, rec.ExtractionConfidence)
	assert.Equal(t, constants.ExtractionMethod, rec.ExtractionMethod)

	assert.NotNil(t, rec.ExamDates)
	assert.Empty(t, rec.ExamDates)
	assert.NotNil(t, rec.MidtermDates)
	assert.NotNil(t, rec.AllImportantDates)
	assert.Empty(t, rec.AllImportantDates)
	assert.NotNil(t, rec.GradeBreakdown)
	assert.Empty(t, rec.GradeBreakdown)
	assert.Empty(t, rec.ExtractionWarnings)
}

func TestExtract_EveryKeySerialized(t *testing.T) {
	rec, err := newTestExtractor(t).Extract(RawText{})
	require.NoError(t, err)

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	for _, k := range append(append([]string{}, stringFields...), eventListFields...) {
		assert.Contains(t, m, k)
	}
	for _, k := range []string{"credits", "final_exam_date", "grade_breakdown", "extraction_confidence", "extraction_warnings"} {
		assert.Contains(t, m, k)
	}
	assert.Nil(t, m["credits"])
	assert.Nil(t, m["final_exam_date"])
	assert.Equal(t, []any{}, m["exam_dates"])
	assert.Equal(t, map[string]any{}, m["grade_breakdown"])
	require.NoError(t, ValidateRecordJSON(b))
}

func TestExtract_InstructorBlock(t *testing.T) {
	rec, err := newTestExtractor(t).Extract(RawText{
		Text: "Course Title: Intro to Testing\nInstructor: Dr. Jane Doe\njane.doe@uni.edu",
	})
	require.NoError(t, err)

	assert.Equal(t, "Intro to Testing", rec.CourseTitle)
	assert.Equal(t, "Dr. Jane Doe", rec.ProfessorName)
	assert.Equal(t, "jane.doe@uni.edu", rec.ProfessorEmail)
}

func TestExtract_FinalExamDate(t *testing.T) {
	rec, err := newTestExtractor(t).Extract(RawText{Text: "Final Exam: 12/15/2024"})
	require.NoError(t, err)

	require.NotNil(t, rec.FinalExamDate)
	assert.True(t, rec.FinalExamDate.Equal(time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC)))
	assert.Contains(t, rec.AllImportantDates, DateEvent{Title: "Final Exam", Date: "2024-12-15", Category: constants.Final})

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "2024-12-15", m["final_exam_date"])

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	require.NotNil(t, back.FinalExamDate)
	assert.True(t, back.FinalExamDate.Equal(rec.FinalExamDate.Time))
}

func TestExtract_FinalExamDateUnparseable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no token", "Final Exam: TBA"},
		{"two digit year", "Final Exam: 12/15/24"},
		{"impossible day", "Final Exam: 02/30/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := newTestExtractor(t).Extract(RawText{Text: tt.text})
			require.NoError(t, err)
			assert.Nil(t, rec.FinalExamDate)
		})
	}
}

func TestExtract_MidtermAndQuiz(t *testing.T) {
	rec, err := newTestExtractor(t).Extract(RawText{Text: "Midterm: 10/01/2024\nQuiz: 09/15/2024"})
	require.NoError(t, err)

	require.Len(t, rec.MidtermDates, 1)
	assert.Equal(t, constants.Midterm, rec.MidtermDates[0].Category)
	assert.Equal(t, "10/01/2024", rec.MidtermDates[0].Date)

	require.Len(t, rec.QuizDates, 1)
	assert.Equal(t, constants.Quiz, rec.QuizDates[0].Category)
	assert.Equal(t, "09/15/2024", rec.QuizDates[0].Date)

	assert.Contains(t, rec.AllImportantDates, rec.MidtermDates[0])
	assert.Contains(t, rec.AllImportantDates, rec.QuizDates[0])
	assert.Equal(t, rec.QuizDates[0], rec.AllImportantDates[0])
}

func TestExtract_FullConfidence(t *testing.T) {
	text := "Course: CS 101 Syllabus\n" +
		"Instructor: Dr. Smith (professor)\n" +
		"Grading: exam 50%, homework 30%, assignment 20%\n" +
		"Schedule: see textbook\n" +
		"Midterm: 10/01/2024\n"

	rec, err := newTestExtractor(t).Extract(RawText{Text: text})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.ExtractionConfidence)
}

func TestExtract_ConfidenceInRange(t *testing.T) {
	inputs := []string{
		"",
		"hello world",
		sampleSyllabus,
		strings.Repeat(sampleSyllabus, 3),
		"course course course\nCourse: Course: Course:",
	}
	for _, in := range inputs {
		rec, err := newTestExtractor(t).Extract(RawText{Text: in})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.ExtractionConfidence, 0.0)
		assert.LessOrEqual(t, rec.ExtractionConfidence, 1.0)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	x := newTestExtractor(t)
	a, err := x.Extract(RawText{Text: sampleSyllabus})
	require.NoError(t, err)
	b, err := x.Extract(RawText{Text: sampleSyllabus})
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestExtract_SampleSyllabus(t *testing.T) {
	rec, err := newTestExtractor(t).Extract(RawText{Text: sampleSyllabus, Filename: "cs101.txt"})
	require.NoError(t, err)

	assert.Equal(t, "Introduction to Programming", rec.CourseTitle)
	assert.Equal(t, "CS 101", rec.CourseCode)
	require.NotNil(t, rec.Credits)
	assert.Equal(t, 3, *rec.Credits)
	assert.Equal(t, "Fall 2024", rec.Semester)
	assert.Equal(t, "Dr. Jane Doe", rec.ProfessorName)
	assert.Equal(t, "jane.doe@uni.edu", rec.ProfessorEmail)
	assert.Equal(t, "555.123.4567", rec.ProfessorPhone)
	assert.Equal(t, "Tue 2-4pm\nThu by appointment", rec.ProfessorOfficeHours)
	assert.Equal(t, "MWF", rec.ClassDays)
	assert.Equal(t, "10:00 - 10:50 AM", rec.ClassTime)
	assert.Equal(t, "Science Center 101", rec.ClassLocation)
	assert.Equal(t, "An introduction to programming\nwith a focus on problem solving.", rec.CourseDescription)
	assert.Equal(t, "A 90-100, B 80-89", rec.GradingScale)
	assert.Equal(t, map[string]int{"exams": 40, "homework": 30, "project": 30}, rec.GradeBreakdown)
	assert.Equal(t, "Think Python", rec.TextbookRequired)
	assert.Equal(t, "https://example.edu/cs101", rec.CourseWebsite)

	require.NotNil(t, rec.FinalExamDate)
	assert.Equal(t, "2024-12-15", rec.FinalExamDate.Format(time.DateOnly))
	require.NotEmpty(t, rec.AllImportantDates)
	assert.Equal(t, "09/13/2024", rec.AllImportantDates[0].Date)
	last := rec.AllImportantDates[len(rec.AllImportantDates)-1]
	assert.Equal(t, DateEvent{Title: "Final Exam", Date: "2024-12-15", Category: constants.Final}, last)
}

func TestExtract_CourseCodePriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled form wins over earlier bare token", "Room: BIO 2201\nCourse Code: CS 101", "CS 101"},
		{"course number label", "Course Number: MATH 2010", "MATH 2010"},
		// The bare fallback happily picks up a room number.
		{"bare fallback false positive", "Meets in room SCI 2201 on MWF", "SCI 2201"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := newTestExtractor(t).Extract(RawText{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.CourseCode)
		})
	}
}

func TestExtract_ContactPrefersInstructorSection(t *testing.T) {
	text := "Questions? Contact ta@uni.edu or call 555-987-6543.\n\n" +
		"Instructor: Prof. X\n" +
		"prof@uni.edu\n" +
		"Phone: 555.123.4567\n"

	rec, err := newTestExtractor(t).Extract(RawText{Text: text})
	require.NoError(t, err)
	assert.Equal(t, "prof@uni.edu", rec.ProfessorEmail)
	assert.Equal(t, "555.123.4567", rec.ProfessorPhone)
}

func TestExtract_ContactFallsBackToGlobal(t *testing.T) {
	text := "Instructor: Prof. X\n\nEmail: help@uni.edu\nCall 555-987-6543"

	rec, err := newTestExtractor(t).Extract(RawText{Text: text})
	require.NoError(t, err)
	assert.Equal(t, "help@uni.edu", rec.ProfessorEmail)
	assert.Equal(t, "555-987-6543", rec.ProfessorPhone)
}

func TestExtract_Credits(t *testing.T) {
	tests := []struct {
		text string
		want *int
	}{
		{"Credits: 4", intPtr(4)},
		{"Credit Hours: 2", intPtr(2)},
		{"This is a 3 credit course", intPtr(3)},
		{"No units listed", nil},
	}
	for _, tt := range tests {
		rec, err := newTestExtractor(t).Extract(RawText{Text: tt.text})
		require.NoError(t, err)
		assert.Equal(t, tt.want, rec.Credits, tt.text)
	}
}

func TestExtract_GradeBreakdownLaterWins(t *testing.T) {
	rec, err := newTestExtractor(t).Extract(RawText{Text: "Exams: 40%\nHomework = 30%\nexams = 50%"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"exams": 50, "homework": 30}, rec.GradeBreakdown)
}

func TestExtract_NormalizesLineEndings(t *testing.T) {
	raw := "Course Description: first line\r\nsecond line\r\n\r\nLate Policy: none \r\n"
	rec, err := newTestExtractor(t).Extract(RawText{Text: raw})
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", rec.CourseDescription)
	assert.Equal(t, "none", rec.LatePolicy)
	assert.Contains(t, raw, "\r\n")
}

func TestExtract_TruncatesLongInput(t *testing.T) {
	text := "Course Title: Intro\n" + strings.Repeat("x", 100) + "\nFinal Exam: 12/15/2024"

	rec, err := newTestExtractor(t, WithMaxInputChars(50)).Extract(RawText{Text: text})
	require.NoError(t, err)
	assert.Equal(t, "Intro", rec.CourseTitle)
	assert.Nil(t, rec.FinalExamDate)
	require.Len(t, rec.ExtractionWarnings, 1)
	assert.Contains(t, rec.ExtractionWarnings[0], "truncated")
}

func TestExtract_FieldFailureIsIsolated(t *testing.T) {
	c, err := NewCatalog(DefaultSpec())
	require.NoError(t, err)
	c.website = nil

	rec, err := NewExtractor(c).Extract(RawText{Text: "Course Title: Intro\nWebsite: https://example.edu"})
	require.NoError(t, err)
	assert.Equal(t, "Intro", rec.CourseTitle)
	assert.Equal(t, "", rec.CourseWebsite)
	require.Len(t, rec.ExtractionWarnings, 1)
	assert.True(t, strings.HasPrefix(rec.ExtractionWarnings[0], "course_website:"))
}

func TestExtract_NoCatalog(t *testing.T) {
	rec, err := NewExtractor(nil).Extract(RawText{Text: "anything"})
	require.ErrorIs(t, err, ErrNoCatalog)
	assert.Nil(t, rec)

	failure := FailureRecord(err)
	assert.Equal(t, 0.0, failure["extraction_confidence"])
	assert.Equal(t, err.Error(), failure["extraction_error"])
}

func intPtr(n int) *int { return &n }
