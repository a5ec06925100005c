package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

// Syllabus is an ingested source document and its processing status.
type Syllabus struct {
	ID            uuid.UUID                  `json:"id"`
	SourcePath    string                     `json:"source_path"`
	Filename      string                     `json:"filename"`
	MimeType      string                     `json:"mime_type"`
	ContentHash   []byte                     `json:"content_hash"`
	ExtractedText string                     `json:"extracted_text"`
	Status        constants.ExtractionStatus `json:"status"`
	ErrorMessage  *string                    `json:"error_message,omitempty"`
	UploadedAt    time.Time                  `json:"uploaded_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}
