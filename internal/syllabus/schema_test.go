package syllabus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRecord_Valid(t *testing.T) {
	rec, err := NewExtractor(DefaultCatalog()).Extract(RawText{Text: sampleSyllabus})
	require.NoError(t, err)

	b, err := MarshalRecord(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"extraction_method":"ai_extraction"`)
}

func TestValidateRecordJSON_Rejects(t *testing.T) {
	rec, err := NewExtractor(DefaultCatalog()).Extract(RawText{Text: sampleSyllabus})
	require.NoError(t, err)
	b, err := json.Marshal(rec)
	require.NoError(t, err)

	mutate := func(fn func(m map[string]any)) []byte {
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		fn(m)
		out, err := json.Marshal(m)
		require.NoError(t, err)
		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"missing key", mutate(func(m map[string]any) { delete(m, "course_title") })},
		{"confidence above one", mutate(func(m map[string]any) { m["extraction_confidence"] = 1.5 })},
		{"unknown category", mutate(func(m map[string]any) {
			m["quiz_dates"] = []any{map[string]any{"title": "Quiz", "date": "1/1/2024", "category": "lecture"}}
		})},
		{"extra key", mutate(func(m map[string]any) { m["extraction_error"] = "boom" })},
		{"not json", []byte("{")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateRecordJSON(tt.data))
		})
	}
}
