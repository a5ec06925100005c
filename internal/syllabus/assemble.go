package syllabus

import (
	"fmt"
	"sort"
	"time"
)

// dateTokenLayouts covers the two token shapes the harvester accepts.
var dateTokenLayouts = []string{"1/2/2006", "1/2/06", "2006-01-02"}

// ParseDateToken turns a harvested MM/DD/YY(YY) or YYYY-MM-DD token into a date.
func ParseDateToken(token string) (time.Time, error) {
	for _, layout := range dateTokenLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date token %q", token)
}

// Assemble composes the final record. all_important_dates is the five
// category lists plus the final exam, ordered by calendar date with tokens
// that do not parse placed last. The original tokens are kept.
func Assemble(fields Fields, dates Dates, confidence float64, method string) Record {
	var all []DateEvent
	all = append(all, dates.ExamDates...)
	all = append(all, dates.HomeworkDates...)
	all = append(all, dates.ProjectDates...)
	all = append(all, dates.QuizDates...)
	all = append(all, dates.MidtermDates...)
	if dates.FinalExamDate != nil {
		all = append(all, FinalExamEvent(dates.FinalExamDate.Time))
	}
	if all == nil {
		all = []DateEvent{}
	}
	sortByDate(all)

	return Record{
		Fields:               fields,
		Dates:                dates,
		ExtractionConfidence: confidence,
		ExtractionMethod:     method,
		AllImportantDates:    all,
		ExtractionWarnings:   []string{},
	}
}

func sortByDate(events []DateEvent) {
	type keyed struct {
		t  time.Time
		ok bool
	}
	keys := make(map[string]keyed, len(events))
	key := func(token string) keyed {
		if k, hit := keys[token]; hit {
			return k
		}
		t, err := ParseDateToken(token)
		k := keyed{t: t, ok: err == nil}
		keys[token] = k
		return k
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := key(events[i].Date), key(events[j].Date)
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.t.Before(b.t)
	})
}
