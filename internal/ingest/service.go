package ingest

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/core/async"
)

// Service handles ingestion business logic.
type Service struct {
	ingestor Ingestor
	queue    async.Queue
	logger   *slog.Logger
}

// NewService creates a new ingest service. q may be nil, in which case
// ingested syllabi stay PENDING until processed elsewhere.
func NewService(ing Ingestor, q async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ingestor: ing,
		queue:    q,
		logger:   logger,
	}
}

// FileIngestRequest represents file ingestion parameters.
type FileIngestRequest struct {
	Path           string
	SkipDuplicates bool
	Materialize    bool
	RequestID      string
}

// DirectoryIngestRequest represents directory ingestion parameters.
type DirectoryIngestRequest struct {
	RootPath       string
	SkipHidden     *bool // defaults to true
	SkipDuplicates bool
	Materialize    bool
	RequestID      string
}

// DirectoryIngestResult represents directory ingestion results.
type DirectoryIngestResult struct {
	Statistics DirStats
	Results    []IngestionResult
	Enqueued   int
}

// IngestFile ingests a single file and enqueues it for extraction.
func (s *Service) IngestFile(ctx context.Context, req FileIngestRequest) (IngestionResult, error) {
	path := strings.TrimSpace(req.Path)
	v := common.NewValidator().Field("path", path, common.Required, common.MaxLength(4096))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("ingest request invalid", "error", v.ErrorMessage())
		return IngestionResult{}, err
	}

	log := common.LoggerWith(ctx, s.logger)
	log.Info("starting file ingest", "path", path)
	r, err := s.ingestor.IngestPath(ctx, path)
	if err != nil {
		return IngestionResult{}, common.InvalidArgumentErrorf("ingest: %v", err)
	}
	log.Info("file ingest succeeded", "syllabus_id", r.SyllabusID, "deduplicated", r.Deduplicated)

	if _, err := s.enqueue(ctx, r, req.SkipDuplicates, req.Materialize, req.RequestID); err != nil {
		return r, err
	}
	return r, nil
}

// IngestDirectory ingests all text files under a directory and enqueues each.
func (s *Service) IngestDirectory(ctx context.Context, req DirectoryIngestRequest) (*DirectoryIngestResult, error) {
	root := strings.TrimSpace(req.RootPath)
	v := common.NewValidator().Field("root_path", root, common.Required, common.MaxLength(4096))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("ingest directory request invalid", "error", v.ErrorMessage())
		return nil, err
	}

	skipHidden := true
	if req.SkipHidden != nil {
		skipHidden = *req.SkipHidden
	}

	log := common.LoggerWith(ctx, s.logger)
	log.Info("starting directory ingest", "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.IngestDirectory(ctx, root, skipHidden)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("ingest directory: %v", err)
	}

	out := &DirectoryIngestResult{Statistics: stats, Results: results}
	for i := range results {
		queued, err := s.enqueue(ctx, results[i], req.SkipDuplicates, req.Materialize, req.RequestID)
		if err != nil {
			return out, err
		}
		if queued {
			out.Enqueued++
		}
	}

	log.Info("directory ingest completed",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
		"enqueued", out.Enqueued,
	)
	return out, nil
}

func (s *Service) enqueue(ctx context.Context, r IngestionResult, skipDuplicates, materialize bool, requestID string) (bool, error) {
	if s.queue == nil || r.Err != "" || r.SyllabusID == "" {
		return false, nil
	}
	id, err := uuid.Parse(r.SyllabusID)
	if err != nil {
		s.logger.Error("invalid syllabus_id: cannot enqueue", "syllabus_id", r.SyllabusID, "error", err)
		return false, common.InvalidArgumentError("invalid syllabus_id")
	}
	if r.Deduplicated && skipDuplicates {
		s.logger.Info("skipping processing (duplicate)", "syllabus_id", id, "path", r.SourcePath)
		return false, nil
	}

	if err := s.queue.Enqueue(ctx, async.Job{
		SyllabusID:  id,
		Materialize: materialize,
		SubmittedAt: time.Now(),
		RequestID:   requestID,
	}); err != nil {
		s.logger.Error("enqueue failed", "syllabus_id", id, "error", err)
		return false, common.InternalErrorf("enqueue failed: %v", err)
	}
	return true, nil
}

// Watch feeds watcher events through IngestFile until ctx is done.
func (s *Service) Watch(ctx context.Context, cfg WatchConfig, materialize bool) error {
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	events, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if _, err := s.IngestFile(ctx, FileIngestRequest{Path: path, SkipDuplicates: true, Materialize: materialize}); err != nil {
				s.logger.Warn("watch ingest failed", "path", path, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				s.logger.Warn("watcher reported error", "error", err)
			}
			if !ok {
				errs = nil
			}
		}
	}
}
