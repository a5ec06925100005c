package constants

// ExtractionStatus is the canonical status for rows in syllabi.
type ExtractionStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    ExtractionStatus = "PENDING"    // uploaded, never extracted
	StatusProcessing ExtractionStatus = "PROCESSING" // extraction in progress
	StatusCompleted  ExtractionStatus = "COMPLETED"  // extraction stored
	StatusFailed     ExtractionStatus = "FAILED"     // error_message set; retry allowed
)

var transitions = map[ExtractionStatus][]ExtractionStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusProcessing},
	StatusFailed:     {StatusProcessing},
}

// CanTransition reports whether a syllabus may move from one status to another.
func CanTransition(from, to ExtractionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor lists every status that may move into to.
func SourcesFor(to ExtractionStatus) []ExtractionStatus {
	var out []ExtractionStatus
	for _, from := range AllStatuses() {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// AllStatuses returns the statuses in lifecycle order.
func AllStatuses() []ExtractionStatus {
	return []ExtractionStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}
}
