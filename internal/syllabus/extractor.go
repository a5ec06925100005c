package syllabus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

var ErrNoCatalog = errors.New("syllabus: extractor has no pattern catalog")

// Extractor runs the field extractor, date harvester and scorer over one
// text and assembles the record. It holds no per-call state.
type Extractor struct {
	catalog  *Catalog
	fields   *FieldExtractor
	dates    *DateHarvester
	maxChars int
	method   string
	logger   *slog.Logger
}

type Option func(*Extractor)

// WithMaxInputChars caps the number of runes examined. Zero or less disables the cap.
func WithMaxInputChars(n int) Option { return func(x *Extractor) { x.maxChars = n } }

func WithMethod(m string) Option { return func(x *Extractor) { x.method = m } }

func WithLogger(l *slog.Logger) Option { return func(x *Extractor) { x.logger = l } }

func NewExtractor(c *Catalog, opts ...Option) *Extractor {
	x := &Extractor{
		catalog:  c,
		maxChars: constants.MaxInputChars,
		method:   constants.ExtractionMethod,
	}
	for _, o := range opts {
		o(x)
	}
	if x.logger == nil {
		x.logger = slog.Default()
	}
	if c != nil {
		x.fields = NewFieldExtractor(c)
		x.dates = NewDateHarvester(c)
	}
	return x
}

// Extract builds the record for raw. Per-field failures become warnings on
// the record; an error is returned only when no record can be built at all,
// in which case callers persist FailureRecord(err).
func (x *Extractor) Extract(raw RawText) (rec *Record, err error) {
	if x == nil || x.catalog == nil {
		return nil, ErrNoCatalog
	}
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("syllabus extraction failed: %v", r)
			x.logger.Error("extractor.panic", "filename", raw.Filename, "error", err)
		}
	}()

	text := Normalize(raw.Text)
	warnings := []string{}
	if capped, truncated := capRunes(text, x.maxChars); truncated {
		text = capped
		warnings = append(warnings, fmt.Sprintf("input truncated to %d characters", x.maxChars))
	}

	fields, fw := x.fields.Extract(text)
	dates, dw := x.dates.Harvest(text)
	warnings = append(warnings, fw...)
	warnings = append(warnings, dw...)

	var confidence float64
	if w := guard("extraction_confidence", func() { confidence = x.catalog.Score(text) }); w != "" {
		warnings = append(warnings, w)
	}

	out := Assemble(fields, dates, confidence, x.method)
	out.ExtractionWarnings = warnings

	x.logger.Debug("extractor.done",
		"filename", raw.Filename,
		"confidence", confidence,
		"dates", len(out.AllImportantDates),
		"warnings", len(warnings),
	)
	return &out, nil
}

type extractResult struct {
	rec *Record
	err error
}

// ExtractContext is Extract bounded by ctx. On cancellation the call returns
// ctx.Err(); the abandoned computation finishes on its own since input is capped.
func (x *Extractor) ExtractContext(ctx context.Context, raw RawText) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan extractResult, 1)
	go func() {
		rec, err := x.Extract(raw)
		done <- extractResult{rec, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.rec, res.err
	}
}
