package syllabus

import (
	"fmt"
	"regexp"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

// Field names a labeled scalar field of the record. Values match the JSON keys.
type Field string

const (
	FieldCourseTitle              Field = "course_title"
	FieldCourseCode               Field = "course_code"
	FieldCourseDescription        Field = "course_description"
	FieldCredits                  Field = "credits"
	FieldPrerequisites            Field = "prerequisites"
	FieldProfessorName            Field = "professor_name"
	FieldProfessorOffice          Field = "professor_office"
	FieldProfessorOfficeHours     Field = "professor_office_hours"
	FieldClassDays                Field = "class_days"
	FieldClassLocation            Field = "class_location"
	FieldSemester                 Field = "semester"
	FieldGradingScale             Field = "grading_scale"
	FieldLatePolicy               Field = "late_policy"
	FieldAttendancePolicy         Field = "attendance_policy"
	FieldAcademicIntegrity        Field = "academic_integrity"
	FieldDisabilityAccommodations Field = "disability_accommodations"
	FieldCourseObjectives         Field = "course_objectives"
	FieldTextbookRequired         Field = "textbook_required"
	FieldTextbookRecommended      Field = "textbook_recommended"
	FieldAdditionalResources      Field = "additional_resources"
)

// blockCapture grabs a line plus any immediately following non-blank lines.
const blockCapture = `([^\n]+(?:\n[^\n]+)*)`

func labeled(label string) string { return `(?i)` + label + `:\s*([^\n]+)` }
func block(label string) string   { return `(?im)` + label + `:\s*` + blockCapture }

// FieldSpec lists the patterns for one field, most specific first.
type FieldSpec struct {
	Field    Field
	Patterns []string
}

// DateSpec lists the keyword synonyms harvested for one category.
type DateSpec struct {
	Category constants.DateCategory
	Keywords []string
}

// CatalogSpec is the uncompiled form of a Catalog.
type CatalogSpec struct {
	Fields []FieldSpec
	Dates  []DateSpec

	Email          string
	Phone          string
	Section        string
	ClassTime      string
	Website        string
	GradeBreakdown []string

	DateToken string
	FinalExam string

	KeyTerms   []string
	Headers    []string
	ScoredDate string
}

// DefaultSpec returns the built-in syllabus patterns.
func DefaultSpec() CatalogSpec {
	return CatalogSpec{
		Fields: []FieldSpec{
			{FieldCourseTitle, []string{labeled(`Course Title`), labeled(`Title`), `(?im)^([A-Z][^:\n]{10,100})$`}},
			{FieldCourseCode, []string{
				`(?i)Course Code:\s*([A-Z]{2,4}\s*\d{3,4})`,
				`(?i)Course Number:\s*([A-Z]{2,4}\s*\d{3,4})`,
				`(?i)\b([A-Z]{2,4}\s*\d{3,4})\b`,
			}},
			{FieldCourseDescription, []string{block(`Course Description`), block(`Description`), block(`Overview`)}},
			{FieldCredits, []string{
				`(?i)Credits?:\s*(\d+)`,
				`(?i)Credit Hours?:\s*(\d+)`,
				`(?i)(\d+)\s*credits?`,
				`(?i)(\d+)\s*credit hours?`,
			}},
			{FieldPrerequisites, []string{block(`Prerequisites?`), block(`Prereq`)}},
			{FieldProfessorName, []string{
				labeled(`Instructor`),
				labeled(`Professor`),
				labeled(`Faculty`),
				`(?i)Dr\.\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`,
				`(?i)Professor\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`,
			}},
			{FieldProfessorOffice, []string{labeled(`Office`), labeled(`Office Location`), labeled(`Room`)}},
			{FieldProfessorOfficeHours, []string{block(`Office Hours?`), block(`Hours?`)}},
			{FieldClassDays, []string{labeled(`Days?`), labeled(`Meeting Days?`), `(?i)(?:MWF|TTh|MTWThF|MW|TThF)`}},
			{FieldClassLocation, []string{labeled(`Location`), labeled(`Room`), labeled(`Building`)}},
			{FieldSemester, []string{labeled(`Semester`), labeled(`Term`), `(?i)(?:Fall|Spring|Summer|Winter)\s+\d{4}`}},
			{FieldGradingScale, []string{block(`Grading Scale`), block(`Grade Scale`)}},
			{FieldLatePolicy, []string{block(`Late Policy`), block(`Late Work`)}},
			{FieldAttendancePolicy, []string{block(`Attendance Policy`), block(`Attendance`)}},
			{FieldAcademicIntegrity, []string{block(`Academic Integrity`), block(`Honor Code`)}},
			{FieldDisabilityAccommodations, []string{block(`Disability Accommodations?`), block(`Accommodations?`)}},
			{FieldCourseObjectives, []string{block(`Course Objectives?`), block(`Learning Objectives?`), block(`Objectives?`)}},
			{FieldTextbookRequired, []string{block(`Required Textbooks?`), block(`Textbooks?`)}},
			{FieldTextbookRecommended, []string{block(`Recommended Textbooks?`), block(`Optional Textbooks?`)}},
			{FieldAdditionalResources, []string{block(`Additional Resources?`), block(`Resources?`)}},
		},
		Dates: []DateSpec{
			{constants.Exam, []string{"exam", "test", "midterm", "final"}},
			{constants.Homework, []string{"homework", "assignment", "hw", "due"}},
			{constants.Project, []string{"project", "presentation", "report"}},
			{constants.Quiz, []string{"quiz", "quizzes"}},
			{constants.Midterm, []string{"midterm", "mid-term"}},
		},

		Email:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`,
		Phone:     `\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`,
		Section:   `(?im)(?:Instructor|Professor|Faculty):[^\n]*(?:\n[^\n]+)*`,
		ClassTime: `\d{1,2}:\d{2}\s*-\s*\d{1,2}:\d{2}\s*(?:AM|PM|am|pm)`,
		Website:   `https?://[^\s]+`,
		GradeBreakdown: []string{
			`(?i)(\w+)\s*:\s*(\d+)%`,
			`(?i)(\w+)\s*=\s*(\d+)%`,
		},

		DateToken: `(\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`,
		FinalExam: `(?i)final\s+exam[^:\n]*:\s*([^\n]+)`,

		KeyTerms: []string{
			"course", "instructor", "professor", "syllabus", "schedule",
			"grading", "exam", "homework", "assignment", "textbook",
		},
		Headers: []string{
			`(?i)Course\s*:`,
			`(?i)Instructor\s*:`,
			`(?i)Grading\s*:`,
			`(?i)Schedule\s*:`,
		},
		ScoredDate: `\d{1,2}/\d{1,2}/\d{2,4}`,
	}
}

// DateKeyword is one compiled keyword synonym of a category.
type DateKeyword struct {
	Keyword string
	Title   string
	Line    *regexp.Regexp
}

// DateRule is the compiled keyword set of one category.
type DateRule struct {
	Category constants.DateCategory
	Keywords []DateKeyword
}

// Catalog is the compiled, read-only pattern set. Safe for concurrent use.
type Catalog struct {
	fields map[Field][]*regexp.Regexp
	order  []Field
	dates  []DateRule

	email          *regexp.Regexp
	phone          *regexp.Regexp
	section        *regexp.Regexp
	classTime      *regexp.Regexp
	website        *regexp.Regexp
	gradeBreakdown []*regexp.Regexp

	dateToken *regexp.Regexp
	finalExam *regexp.Regexp

	keyTerms   []string
	headers    []*regexp.Regexp
	scoredDate *regexp.Regexp
}

// NewCatalog compiles spec. Any invalid pattern fails the whole catalog.
func NewCatalog(spec CatalogSpec) (*Catalog, error) {
	c := &Catalog{fields: make(map[Field][]*regexp.Regexp, len(spec.Fields))}

	compile := func(name, expr string) (*regexp.Regexp, error) {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("catalog: compile %s: %w", name, err)
		}
		return re, nil
	}

	for _, fs := range spec.Fields {
		list := make([]*regexp.Regexp, 0, len(fs.Patterns))
		for _, p := range fs.Patterns {
			re, err := compile(string(fs.Field), p)
			if err != nil {
				return nil, err
			}
			list = append(list, re)
		}
		if _, dup := c.fields[fs.Field]; !dup {
			c.order = append(c.order, fs.Field)
		}
		c.fields[fs.Field] = list
	}

	titler := cases.Title(language.English)
	for _, ds := range spec.Dates {
		rule := DateRule{Category: ds.Category}
		for _, kw := range ds.Keywords {
			re, err := compile(string(ds.Category)+"/"+kw, `(?i)\b`+regexp.QuoteMeta(kw)+`[^:\n]*:\s*([^\n]+)`)
			if err != nil {
				return nil, err
			}
			rule.Keywords = append(rule.Keywords, DateKeyword{Keyword: kw, Title: titler.String(kw), Line: re})
		}
		c.dates = append(c.dates, rule)
	}

	singles := []struct {
		name string
		expr string
		dst  **regexp.Regexp
	}{
		{"email", spec.Email, &c.email},
		{"phone", spec.Phone, &c.phone},
		{"section", spec.Section, &c.section},
		{"class_time", spec.ClassTime, &c.classTime},
		{"website", spec.Website, &c.website},
		{"date_token", spec.DateToken, &c.dateToken},
		{"final_exam", spec.FinalExam, &c.finalExam},
		{"scored_date", spec.ScoredDate, &c.scoredDate},
	}
	for _, s := range singles {
		re, err := compile(s.name, s.expr)
		if err != nil {
			return nil, err
		}
		*s.dst = re
	}

	for _, p := range spec.GradeBreakdown {
		re, err := compile("grade_breakdown", p)
		if err != nil {
			return nil, err
		}
		c.gradeBreakdown = append(c.gradeBreakdown, re)
	}
	for _, p := range spec.Headers {
		re, err := compile("header", p)
		if err != nil {
			return nil, err
		}
		c.headers = append(c.headers, re)
	}
	c.keyTerms = append([]string(nil), spec.KeyTerms...)

	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(DefaultSpec())
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the built-in catalog, compiled once per process.
func DefaultCatalog() *Catalog { return defaultCatalog() }

// Patterns returns the ordered patterns of a labeled field.
func (c *Catalog) Patterns(f Field) []*regexp.Regexp { return c.fields[f] }

// Fields returns the labeled fields in declaration order.
func (c *Catalog) Fields() []Field { return c.order }

// DateRules returns the compiled keyword rules in harvest order.
func (c *Catalog) DateRules() []DateRule { return c.dates }
