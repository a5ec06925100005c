package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Course Title: Organic Chemistry
Course Code: CHEM 2210
Instructor: Dr. Lena Ortiz
Email: lortiz@example.edu

Midterm: 10/15/2024
Final Exam: 12/15/2024
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SYLLABUS_CONFIG", "")
	t.Setenv("SYLLABUS_LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chem.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	out, err := run(t, "extract", "--compact", path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "Organic Chemistry", rec["course_title"])
	assert.Equal(t, "CHEM 2210", rec["course_code"])
	assert.Equal(t, "lortiz@example.edu", rec["professor_email"])
}

func TestExtractCommand_MissingFile(t *testing.T) {
	_, err := run(t, "extract", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "syllabi")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chem.txt"), []byte(sample), 0o644))
	outFile := filepath.Join(root, "dates.xlsx")

	out, err := run(t, "batch", "--inmem", "--dir", dir, "--out", outFile, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "- Syllabi processed: 1")
	assert.Contains(t, out, "- Failures: 0")

	info, err := os.Stat(outFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestBatchCommand_BadDate(t *testing.T) {
	_, err := run(t, "batch", "--inmem", "--dir", t.TempDir(), "--from", "15/10/2024")
	assert.ErrorContains(t, err, "--from")
}
