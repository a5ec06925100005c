package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/repository"
)

// SheetName is the worksheet holding exported important dates.
const SheetName = "Important Dates"

// Service produces XLSX bytes for important-date exports.
type Service struct {
	dates  repository.ImportantDateRepository
	logger *slog.Logger
}

func NewService(dates repository.ImportantDateRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dates: dates, logger: logger}
}

// ExportDatesXLSX returns an XLSX workbook (as bytes) of materialized dates.
// A nil syllabusID exports every syllabus.
// If only from is provided -> from onward, upcoming dates included.
// If only to is provided   -> beginning..to (inclusive).
func (s *Service) ExportDatesXLSX(ctx context.Context, syllabusID *uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := dateOnly(*from)
		fromDate = &f
	}
	if to != nil {
		t := dateOnly(*to)
		toDate = &t
	}
	if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
		return nil, fmt.Errorf("export window: to %s is before from %s: %w",
			toDate.Format(time.DateOnly), fromDate.Format(time.DateOnly), common.ErrInvalidInput)
	}

	rows, err := s.dates.List(ctx, repository.DateFilter{SyllabusID: syllabusID, From: fromDate, To: toDate})
	if err != nil {
		return nil, fmt.Errorf("query important dates: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{"Due Date", "Category", "Title", "Raw Date", "Description", "Source File"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, r.DueDate.Format(time.DateOnly))
		write(2, string(r.Category))
		write(3, r.Title)
		write(4, r.RawDate)
		write(5, truncate(r.Description, 140))
		write(6, r.SourceFilename)
	}

	_ = f.SetColWidth(SheetName, "A", "B", 14)
	_ = f.SetColWidth(SheetName, "C", "C", 28)
	_ = f.SetColWidth(SheetName, "D", "D", 14)
	_ = f.SetColWidth(SheetName, "E", "E", 48)
	_ = f.SetColWidth(SheetName, "F", "F", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"syllabus_id", syllabusID,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
