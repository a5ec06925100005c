package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/metrics"
	"github.com/joseph-ayodele/syllabus-tracker/internal/repository"
	"github.com/joseph-ayodele/syllabus-tracker/internal/syllabus"
)

// ProcessResult summarizes one successful extraction run.
type ProcessResult struct {
	SyllabusID   uuid.UUID
	ExtractionID uuid.UUID
	Confidence   float64
	Dates        int
	Warnings     []string
}

// Processor moves a syllabus through PROCESSING and stores its extraction.
type Processor struct {
	logger      *slog.Logger
	extractor   *syllabus.Extractor
	syllabi     repository.SyllabusRepository
	extractions repository.ExtractionRepository
	metrics     *metrics.Metrics
	timeout     time.Duration
}

func NewProcessor(
	logger *slog.Logger,
	extractor *syllabus.Extractor,
	syllabi repository.SyllabusRepository,
	extractions repository.ExtractionRepository,
	m *metrics.Metrics,
	timeout time.Duration,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:      logger,
		extractor:   extractor,
		syllabi:     syllabi,
		extractions: extractions,
		metrics:     m,
		timeout:     timeout,
	}
}

// ProcessSyllabus triggers extraction for id. On success the syllabus is
// COMPLETED and a new extraction row holds the record; on failure it is
// FAILED with the error message and may be retried.
func (p *Processor) ProcessSyllabus(ctx context.Context, id uuid.UUID) (*ProcessResult, error) {
	s, err := p.syllabi.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get syllabus: %w", err)
	}
	if err := p.syllabi.Transition(ctx, id, constants.StatusProcessing, ""); err != nil {
		return nil, err
	}
	started := time.Now()

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	rec, err := p.extractor.ExtractContext(runCtx, syllabus.RawText{
		Text:     s.ExtractedText,
		Filename: s.Filename,
		MimeType: s.MimeType,
	})
	if err != nil {
		return nil, p.fail(ctx, id, started, "extract", err)
	}

	body, err := syllabus.MarshalRecord(rec)
	if err != nil {
		return nil, p.fail(ctx, id, started, "validate", err)
	}

	ext, err := p.extractions.Save(ctx, id, rec.ExtractionConfidence, rec.ExtractionMethod, body)
	if err != nil {
		return nil, p.fail(ctx, id, started, "save", err)
	}

	if err := p.syllabi.Transition(context.WithoutCancel(ctx), id, constants.StatusCompleted, ""); err != nil {
		return nil, p.fail(ctx, id, started, "complete", err)
	}
	p.metrics.ExtractionCompleted(rec.ExtractionConfidence, time.Since(started))

	for _, w := range rec.ExtractionWarnings {
		p.logger.Warn("processor.extract.warning", "syllabus_id", id, "warning", w)
	}
	p.logger.Info("processor.extract.ok",
		"syllabus_id", id,
		"extraction_id", ext.ID,
		"filename", s.Filename,
		"confidence", rec.ExtractionConfidence,
		"dates", len(rec.AllImportantDates),
	)
	return &ProcessResult{
		SyllabusID:   id,
		ExtractionID: ext.ID,
		Confidence:   rec.ExtractionConfidence,
		Dates:        len(rec.AllImportantDates),
		Warnings:     rec.ExtractionWarnings,
	}, nil
}

// fail records FAILED even when ctx is already done.
func (p *Processor) fail(ctx context.Context, id uuid.UUID, started time.Time, stage string, cause error) error {
	p.metrics.ExtractionFailed(time.Since(started))
	p.logger.Error("processor."+stage+".failed", "syllabus_id", id, "error", cause)

	if err := p.syllabi.Transition(context.WithoutCancel(ctx), id, constants.StatusFailed, cause.Error()); err != nil {
		p.logger.Error("processor.mark_failed.failed", "syllabus_id", id, "error", err)
	}
	return fmt.Errorf("%s syllabus %s: %w", stage, id, cause)
}
