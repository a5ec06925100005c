package syllabus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

var stringFields = []string{
	"course_title", "course_code", "course_description", "prerequisites",
	"professor_name", "professor_email", "professor_office", "professor_office_hours", "professor_phone",
	"class_days", "class_time", "class_location", "semester",
	"grading_scale", "late_policy", "attendance_policy",
	"academic_integrity", "disability_accommodations", "course_objectives",
	"textbook_required", "textbook_recommended", "course_website", "additional_resources",
	"extraction_method",
}

var eventListFields = []string{
	"exam_dates", "homework_dates", "project_dates", "quiz_dates", "midterm_dates", "all_important_dates",
}

// BuildRecordJSONSchema describes the serialized Record. Every key is required.
func BuildRecordJSONSchema() map[string]any {
	event := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "date", "category"},
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "minLength": 1},
			"date":     map[string]any{"type": "string", "minLength": 1},
			"category": map[string]any{"type": "string", "enum": constants.AsStringSlice()},
		},
	}

	props := map[string]any{
		"credits":               map[string]any{"type": []string{"integer", "null"}, "minimum": 0},
		"final_exam_date":       map[string]any{"type": []string{"string", "null"}},
		"grade_breakdown":       map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "integer"}},
		"extraction_confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"extraction_warnings":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}
	for _, f := range stringFields {
		props[f] = map[string]any{"type": "string"}
	}
	for _, f := range eventListFields {
		props[f] = map[string]any{"type": "array", "items": event}
	}

	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

var recordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(BuildRecordJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("record.json")
})

// ValidateRecordJSON checks serialized record bytes against the record schema.
func ValidateRecordJSON(data []byte) error {
	schema, err := recordSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}

// MarshalRecord serializes rec and validates the result.
func MarshalRecord(rec *Record) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	if err := ValidateRecordJSON(b); err != nil {
		return nil, err
	}
	return b, nil
}
