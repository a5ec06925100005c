package syllabus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldExtractor pulls the labeled scalar fields out of syllabus text.
type FieldExtractor struct {
	catalog *Catalog
}

func NewFieldExtractor(c *Catalog) *FieldExtractor {
	return &FieldExtractor{catalog: c}
}

// Extract returns every scalar field. A field whose matching panics is left
// empty and reported in the returned warnings; the other fields are kept.
func (e *FieldExtractor) Extract(text string) (Fields, []string) {
	f := emptyFields()
	var warnings []string
	run := func(name string, fn func()) {
		if w := guard(name, fn); w != "" {
			warnings = append(warnings, w)
		}
	}

	scalar := func(dst *string, field Field) {
		run(string(field), func() { *dst = e.first(field, text) })
	}
	scalar(&f.CourseTitle, FieldCourseTitle)
	scalar(&f.CourseCode, FieldCourseCode)
	scalar(&f.CourseDescription, FieldCourseDescription)
	run(string(FieldCredits), func() { f.Credits = parseCredits(e.first(FieldCredits, text)) })
	scalar(&f.Prerequisites, FieldPrerequisites)

	scalar(&f.ProfessorName, FieldProfessorName)
	run("professor_email", func() { f.ProfessorEmail = e.sectionPreferred(e.catalog.email, text) })
	scalar(&f.ProfessorOffice, FieldProfessorOffice)
	scalar(&f.ProfessorOfficeHours, FieldProfessorOfficeHours)
	run("professor_phone", func() { f.ProfessorPhone = e.sectionPreferred(e.catalog.phone, text) })

	scalar(&f.ClassDays, FieldClassDays)
	run("class_time", func() { f.ClassTime = strings.TrimSpace(e.catalog.classTime.FindString(text)) })
	scalar(&f.ClassLocation, FieldClassLocation)
	scalar(&f.Semester, FieldSemester)

	scalar(&f.GradingScale, FieldGradingScale)
	run("grade_breakdown", func() { f.GradeBreakdown = e.gradeBreakdown(text) })
	scalar(&f.LatePolicy, FieldLatePolicy)
	scalar(&f.AttendancePolicy, FieldAttendancePolicy)

	scalar(&f.AcademicIntegrity, FieldAcademicIntegrity)
	scalar(&f.DisabilityAccommodations, FieldDisabilityAccommodations)
	scalar(&f.CourseObjectives, FieldCourseObjectives)

	scalar(&f.TextbookRequired, FieldTextbookRequired)
	scalar(&f.TextbookRecommended, FieldTextbookRecommended)
	run("course_website", func() { f.CourseWebsite = e.catalog.website.FindString(text) })
	scalar(&f.AdditionalResources, FieldAdditionalResources)

	if f.GradeBreakdown == nil {
		f.GradeBreakdown = map[string]int{}
	}
	return f, warnings
}

// first tries the field's patterns in order and returns the first capture of
// the first pattern that matches. Patterns without a group yield the whole match.
func (e *FieldExtractor) first(field Field, text string) string {
	for _, re := range e.catalog.Patterns(field) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

// sectionPreferred looks inside the instructor block first, then anywhere.
func (e *FieldExtractor) sectionPreferred(re *regexp.Regexp, text string) string {
	if section := e.catalog.section.FindString(text); section != "" {
		if m := re.FindString(section); m != "" {
			return m
		}
	}
	return re.FindString(text)
}

func (e *FieldExtractor) gradeBreakdown(text string) map[string]int {
	out := map[string]int{}
	for _, re := range e.catalog.gradeBreakdown {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			pct, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			out[strings.ToLower(m[1])] = pct
		}
	}
	return out
}

func parseCredits(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// guard runs fn and converts a panic into a warning string.
func guard(name string, fn func()) (warning string) {
	defer func() {
		if r := recover(); r != nil {
			warning = fmt.Sprintf("%s: %v", name, r)
		}
	}()
	fn()
	return ""
}
