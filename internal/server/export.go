package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// dateQuery parses syllabus_id, from and to (YYYY-MM-DD) query parameters.
func dateQuery(c echo.Context) (repository.DateFilter, error) {
	var f repository.DateFilter
	if raw := strings.TrimSpace(c.QueryParam("syllabus_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, common.InvalidArgumentError("syllabus_id must be a UUID")
		}
		f.SyllabusID = &id
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(c.QueryParam(p.name))
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return f, common.InvalidArgumentErrorf("%s must be YYYY-MM-DD", p.name)
		}
		*p.dst = &t
	}
	return f, nil
}

func (s *Server) listDates(c echo.Context) error {
	f, err := dateQuery(c)
	if err != nil {
		return err
	}
	rows, err := s.deps.Dates.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"dates": rows})
}

func (s *Server) exportDates(c echo.Context) error {
	f, err := dateQuery(c)
	if err != nil {
		return err
	}
	xlsx, err := s.deps.Export.ExportDatesXLSX(c.Request().Context(), f.SyllabusID, f.From, f.To)
	if err != nil {
		s.log.Error("export.xlsx.failed", "error", err)
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="important_dates.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, xlsx)
}
