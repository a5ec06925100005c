package syllabus

import (
	"time"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

// finalExamLayouts are tried in order when parsing the final exam token.
var finalExamLayouts = []string{"1/2/2006", "2006-01-02"}

// DateHarvester scans keyword lines for embedded date tokens.
type DateHarvester struct {
	catalog *Catalog
}

func NewDateHarvester(c *Catalog) *DateHarvester {
	return &DateHarvester{catalog: c}
}

// Harvest returns the per-category events and the parsed final exam date.
// Category tokens are kept exactly as written.
func (h *DateHarvester) Harvest(text string) (Dates, []string) {
	d := emptyDates()
	var warnings []string

	for _, rule := range h.catalog.DateRules() {
		if w := guard(string(rule.Category)+"_dates", func() {
			d.set(rule.Category, h.harvestRule(rule, text))
		}); w != "" {
			warnings = append(warnings, w)
		}
	}

	if w := guard("final_exam_date", func() { d.FinalExamDate = h.finalExam(text) }); w != "" {
		warnings = append(warnings, w)
	}
	return d, warnings
}

func (h *DateHarvester) harvestRule(rule DateRule, text string) []DateEvent {
	events := []DateEvent{}
	for _, kw := range rule.Keywords {
		for _, m := range kw.Line.FindAllStringSubmatch(text, -1) {
			token := h.catalog.dateToken.FindString(m[1])
			if token == "" {
				continue
			}
			events = append(events, DateEvent{Title: kw.Title, Date: token, Category: rule.Category})
		}
	}
	return events
}

func (h *DateHarvester) finalExam(text string) *Date {
	m := h.catalog.finalExam.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	token := h.catalog.dateToken.FindString(m[1])
	if token == "" {
		return nil
	}
	for _, layout := range finalExamLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return NewDate(t)
		}
	}
	return nil
}

// FinalExamEvent synthesizes the final exam entry for all_important_dates.
func FinalExamEvent(t time.Time) DateEvent {
	return DateEvent{Title: "Final Exam", Date: t.Format(time.DateOnly), Category: constants.Final}
}
