package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Extraction is one persisted extraction run. The newest row per syllabus is current.
type Extraction struct {
	ID                   uuid.UUID       `json:"id"`
	SyllabusID           uuid.UUID       `json:"syllabus_id"`
	ExtractionConfidence float64         `json:"extraction_confidence"`
	ExtractionMethod     string          `json:"extraction_method"`
	RecordJSON           json.RawMessage `json:"record_json"`
	ExtractedAt          time.Time       `json:"extracted_at"`
}
