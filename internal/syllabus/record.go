package syllabus

import (
	"encoding/json"
	"time"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

// RawText is the decoded syllabus text plus minimal provenance.
type RawText struct {
	Text     string
	Filename string
	MimeType string
}

// DateEvent is one extracted (category, title, date) triple.
// Date carries the token as it appeared in the text, except for the
// final-exam event whose date is normalized to YYYY-MM-DD.
type DateEvent struct {
	Title    string                 `json:"title"`
	Date     string                 `json:"date"`
	Category constants.DateCategory `json:"category"`
}

// Date is a calendar day that serializes as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	y, m, d := t.Date()
	return &Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Fields is the scalar/textual part of an extraction.
type Fields struct {
	CourseTitle       string `json:"course_title"`
	CourseCode        string `json:"course_code"`
	CourseDescription string `json:"course_description"`
	Credits           *int   `json:"credits"`
	Prerequisites     string `json:"prerequisites"`

	ProfessorName        string `json:"professor_name"`
	ProfessorEmail       string `json:"professor_email"`
	ProfessorOffice      string `json:"professor_office"`
	ProfessorOfficeHours string `json:"professor_office_hours"`
	ProfessorPhone       string `json:"professor_phone"`

	ClassDays     string `json:"class_days"`
	ClassTime     string `json:"class_time"`
	ClassLocation string `json:"class_location"`
	Semester      string `json:"semester"`

	GradingScale     string         `json:"grading_scale"`
	GradeBreakdown   map[string]int `json:"grade_breakdown"`
	LatePolicy       string         `json:"late_policy"`
	AttendancePolicy string         `json:"attendance_policy"`

	AcademicIntegrity        string `json:"academic_integrity"`
	DisabilityAccommodations string `json:"disability_accommodations"`
	CourseObjectives         string `json:"course_objectives"`

	TextbookRequired    string `json:"textbook_required"`
	TextbookRecommended string `json:"textbook_recommended"`
	CourseWebsite       string `json:"course_website"`
	AdditionalResources string `json:"additional_resources"`
}

// Dates is the DateHarvester output.
type Dates struct {
	ExamDates     []DateEvent `json:"exam_dates"`
	HomeworkDates []DateEvent `json:"homework_dates"`
	ProjectDates  []DateEvent `json:"project_dates"`
	QuizDates     []DateEvent `json:"quiz_dates"`
	MidtermDates  []DateEvent `json:"midterm_dates"`
	FinalExamDate *Date       `json:"final_exam_date"`
}

// ForCategory returns the list for a harvested category.
func (d Dates) ForCategory(c constants.DateCategory) []DateEvent {
	switch c {
	case constants.Exam:
		return d.ExamDates
	case constants.Homework:
		return d.HomeworkDates
	case constants.Project:
		return d.ProjectDates
	case constants.Quiz:
		return d.QuizDates
	case constants.Midterm:
		return d.MidtermDates
	default:
		return nil
	}
}

func (d *Dates) set(c constants.DateCategory, events []DateEvent) {
	switch c {
	case constants.Exam:
		d.ExamDates = events
	case constants.Homework:
		d.HomeworkDates = events
	case constants.Project:
		d.ProjectDates = events
	case constants.Quiz:
		d.QuizDates = events
	case constants.Midterm:
		d.MidtermDates = events
	}
}

// Record is the immutable ExtractionRecord. It serializes to a flat mapping
// in which every field is present.
type Record struct {
	Fields
	Dates

	ExtractionConfidence float64     `json:"extraction_confidence"`
	ExtractionMethod     string      `json:"extraction_method"`
	AllImportantDates    []DateEvent `json:"all_important_dates"`
	ExtractionWarnings   []string    `json:"extraction_warnings"`
}

// FailureRecord is the flat mapping stored when extraction fails as a whole.
func FailureRecord(err error) map[string]any {
	return map[string]any{
		"extraction_error":      err.Error(),
		"extraction_confidence": 0.0,
	}
}

func emptyFields() Fields {
	return Fields{GradeBreakdown: map[string]int{}}
}

func emptyDates() Dates {
	return Dates{
		ExamDates:     []DateEvent{},
		HomeworkDates: []DateEvent{},
		ProjectDates:  []DateEvent{},
		QuizDates:     []DateEvent{},
		MidtermDates:  []DateEvent{},
	}
}
