package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/entity"
	"github.com/joseph-ayodele/syllabus-tracker/internal/metrics"
	"github.com/joseph-ayodele/syllabus-tracker/internal/repository"
	"github.com/joseph-ayodele/syllabus-tracker/internal/syllabus"
)

// EventFailure is one date event that could not be materialized.
type EventFailure struct {
	Event syllabus.DateEvent `json:"event"`
	Error string             `json:"error"`
}

// MaterializeReport counts what a Materialize call did.
type MaterializeReport struct {
	SyllabusID   uuid.UUID      `json:"syllabus_id"`
	ExtractionID uuid.UUID      `json:"extraction_id"`
	Created      int            `json:"created"`
	Duplicates   int            `json:"duplicates"`
	Failed       []EventFailure `json:"failed"`
}

// Projector turns a completed extraction's all_important_dates into
// persisted important_dates rows.
type Projector struct {
	logger      *slog.Logger
	syllabi     repository.SyllabusRepository
	extractions repository.ExtractionRepository
	dates       repository.ImportantDateRepository
	metrics     *metrics.Metrics
}

func NewProjector(
	logger *slog.Logger,
	syllabi repository.SyllabusRepository,
	extractions repository.ExtractionRepository,
	dates repository.ImportantDateRepository,
	m *metrics.Metrics,
) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{logger: logger, syllabi: syllabi, extractions: extractions, dates: dates, metrics: m}
}

// Materialize is idempotent: rows already present for (syllabus, title, date)
// count as duplicates, and events whose token does not parse are skipped
// and reported without stopping the batch.
func (p *Projector) Materialize(ctx context.Context, syllabusID uuid.UUID) (*MaterializeReport, error) {
	s, err := p.syllabi.Get(ctx, syllabusID)
	if err != nil {
		return nil, fmt.Errorf("get syllabus: %w", err)
	}
	if s.Status != constants.StatusCompleted {
		return nil, fmt.Errorf("syllabus %s is %s: %w", syllabusID, s.Status, common.ErrNotCompleted)
	}

	ext, err := p.extractions.Latest(ctx, syllabusID)
	if err != nil {
		return nil, fmt.Errorf("latest extraction: %w", err)
	}

	var rec struct {
		AllImportantDates []syllabus.DateEvent `json:"all_important_dates"`
	}
	if err := json.Unmarshal(ext.RecordJSON, &rec); err != nil {
		return nil, fmt.Errorf("decode extraction %s: %w", ext.ID, err)
	}

	report := &MaterializeReport{SyllabusID: syllabusID, ExtractionID: ext.ID, Failed: []EventFailure{}}
	for _, ev := range rec.AllImportantDates {
		due, err := syllabus.ParseDateToken(ev.Date)
		if err != nil {
			report.Failed = append(report.Failed, EventFailure{Event: ev, Error: err.Error()})
			p.logger.Warn("projector.event.skipped", "syllabus_id", syllabusID, "title", ev.Title, "date", ev.Date, "error", err)
			continue
		}

		category, ok := constants.Canonicalize(string(ev.Category))
		if !ok {
			p.logger.Warn("projector.category.unknown", "syllabus_id", syllabusID, "category", ev.Category)
		}

		extID := ext.ID
		created, err := p.dates.InsertIgnore(ctx, &entity.ImportantDate{
			SyllabusID:   syllabusID,
			ExtractionID: &extID,
			Title:        ev.Title,
			Category:     category,
			DueDate:      due,
			RawDate:      ev.Date,
			Description:  fmt.Sprintf("%s from %s", ev.Title, s.Filename),
		})
		if err != nil {
			p.metrics.DatesMaterialized(report.Created, report.Duplicates, len(report.Failed))
			return report, fmt.Errorf("store %q on %s: %w", ev.Title, ev.Date, err)
		}
		if created {
			report.Created++
		} else {
			report.Duplicates++
		}
	}

	p.metrics.DatesMaterialized(report.Created, report.Duplicates, len(report.Failed))
	p.logger.Info("projector.materialize.ok",
		"syllabus_id", syllabusID,
		"extraction_id", ext.ID,
		"created", report.Created,
		"duplicates", report.Duplicates,
		"failed", len(report.Failed),
	)
	return report, nil
}
