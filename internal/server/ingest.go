package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/ingest"
)

type ingestFileRequest struct {
	Path           string `json:"path"`
	SkipDuplicates bool   `json:"skip_duplicates"`
	Materialize    bool   `json:"materialize"`
}

type ingestDirectoryRequest struct {
	RootPath       string `json:"root_path"`
	SkipHidden     *bool  `json:"skip_hidden"`
	SkipDuplicates bool   `json:"skip_duplicates"`
	Materialize    bool   `json:"materialize"`
}

type ingestResponse struct {
	SyllabusID     string `json:"syllabus_id,omitempty"`
	Deduplicated   bool   `json:"deduplicated"`
	ContentHashHex string `json:"content_hash_hex,omitempty"`
	FileExt        string `json:"file_ext,omitempty"`
	UploadedAt     string `json:"uploaded_at,omitempty"`
	SourcePath     string `json:"source_path"`
	Error          string `json:"error,omitempty"`
}

type ingestDirectoryResponse struct {
	Scanned      uint32           `json:"scanned"`
	Matched      uint32           `json:"matched"`
	Succeeded    uint32           `json:"succeeded"`
	Deduplicated uint32           `json:"deduplicated"`
	Failed       uint32           `json:"failed"`
	Enqueued     int              `json:"enqueued"`
	Results      []ingestResponse `json:"results"`
}

func toIngestResponse(r ingest.IngestionResult) ingestResponse {
	out := ingestResponse{
		SyllabusID:     r.SyllabusID,
		Deduplicated:   r.Deduplicated,
		ContentHashHex: r.HashHex,
		FileExt:        r.FileExt,
		SourcePath:     r.SourcePath,
		Error:          r.Err,
	}
	if !r.UploadedAt.IsZero() {
		out.UploadedAt = r.UploadedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func (s *Server) ingestFile(c echo.Context) error {
	var req ingestFileRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	r, err := s.deps.Ingest.IngestFile(ctx, ingest.FileIngestRequest{
		Path:           req.Path,
		SkipDuplicates: req.SkipDuplicates,
		Materialize:    req.Materialize,
		RequestID:      common.RequestIDFromContext(ctx),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, toIngestResponse(r))
}

func (s *Server) ingestDirectory(c echo.Context) error {
	var req ingestDirectoryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	res, err := s.deps.Ingest.IngestDirectory(ctx, ingest.DirectoryIngestRequest{
		RootPath:       req.RootPath,
		SkipHidden:     req.SkipHidden,
		SkipDuplicates: req.SkipDuplicates,
		Materialize:    req.Materialize,
		RequestID:      common.RequestIDFromContext(ctx),
	})
	if err != nil {
		return err
	}

	out := ingestDirectoryResponse{
		Scanned:      res.Statistics.Scanned,
		Matched:      res.Statistics.Matched,
		Succeeded:    res.Statistics.Succeeded,
		Deduplicated: res.Statistics.Deduplicated,
		Failed:       res.Statistics.Failed,
		Enqueued:     res.Enqueued,
		Results:      make([]ingestResponse, 0, len(res.Results)),
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, toIngestResponse(r))
	}
	return c.JSON(http.StatusAccepted, out)
}
