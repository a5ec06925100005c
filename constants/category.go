package constants

import (
	"strings"
)

// DateCategory classifies a dated syllabus event.
type DateCategory string

const (
	Exam     DateCategory = "exam"
	Homework DateCategory = "homework"
	Project  DateCategory = "project"
	Quiz     DateCategory = "quiz"
	Midterm  DateCategory = "midterm"
	Final    DateCategory = "final"
)

// allCategories is ordered the way category lists are merged into all_important_dates.
var allCategories = []DateCategory{
	Exam,
	Homework,
	Project,
	Quiz,
	Midterm,
	Final,
}

// HarvestedCategories are the categories scanned by keyword; Final is synthesized separately.
var HarvestedCategories = []DateCategory{Exam, Homework, Project, Quiz, Midterm}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

func (c DateCategory) Valid() bool {
	for _, cat := range allCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Canonicalize maps a free-form label onto a DateCategory.
func Canonicalize(input string) (DateCategory, bool) {
	if input == "" {
		return Exam, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DateCategory{
		"test":         Exam,
		"assignment":   Homework,
		"hw":           Homework,
		"presentation": Project,
		"report":       Project,
		"quizzes":      Quiz,
		"mid-term":     Midterm,
		"final exam":   Final,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Exam, false
}
