package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

// ImportantDate is a materialized calendar event. (SyllabusID, Title, DueDate) is unique.
type ImportantDate struct {
	ID           uuid.UUID              `json:"id"`
	SyllabusID   uuid.UUID              `json:"syllabus_id"`
	ExtractionID *uuid.UUID             `json:"extraction_id,omitempty"`
	Title        string                 `json:"title"`
	Category     constants.DateCategory `json:"category"`
	DueDate      time.Time              `json:"due_date"`
	RawDate      string                 `json:"raw_date"`
	Description  string                 `json:"description"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ImportantDateRow joins an important date with its source file for listings.
type ImportantDateRow struct {
	ImportantDate
	SourceFilename string `json:"source_filename"`
}
