package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/core/async"
	"github.com/joseph-ayodele/syllabus-tracker/internal/entity"
)

type syllabusResponse struct {
	entity.Syllabus
	Extraction *entity.Extraction `json:"extraction,omitempty"`
}

func pathID(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	v := common.NewValidator().Field("id", raw, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func (s *Server) listSyllabi(c echo.Context) error {
	var filter *constants.ExtractionStatus
	if raw := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); raw != "" {
		allowed := make([]string, 0, 4)
		for _, st := range constants.AllStatuses() {
			allowed = append(allowed, string(st))
		}
		v := common.NewValidator().Field("status", raw, common.OneOf(allowed...))
		if err := common.ValidateAndReturnError(v); err != nil {
			return err
		}
		st := constants.ExtractionStatus(raw)
		filter = &st
	}

	list, err := s.deps.Syllabi.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].ExtractedText = ""
	}
	return c.JSON(http.StatusOK, map[string]any{"syllabi": list})
}

func (s *Server) getSyllabus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	syl, err := s.deps.Syllabi.Get(ctx, id)
	if err != nil {
		return err
	}
	out := syllabusResponse{Syllabus: *syl}
	ext, err := s.deps.Extractions.Latest(ctx, id)
	switch {
	case err == nil:
		out.Extraction = ext
	case !errors.Is(err, common.ErrNotFound):
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) processSyllabus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if s.deps.Queue == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "processing queue is not running")
	}
	ctx := c.Request().Context()
	if _, err := s.deps.Syllabi.Get(ctx, id); err != nil {
		return err
	}
	job := async.Job{
		SyllabusID:  id,
		Materialize: c.QueryParam("materialize") == "true",
		SubmittedAt: time.Now(),
		RequestID:   common.RequestIDFromContext(ctx),
	}
	if err := s.deps.Queue.Enqueue(ctx, job); err != nil {
		if errors.Is(err, async.ErrQueueClosed) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]any{"syllabus_id": id, "queued": true, "materialize": job.Materialize})
}

func (s *Server) materialize(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	report, err := s.deps.Projector.Materialize(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
