package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/core"
	"github.com/joseph-ayodele/syllabus-tracker/internal/core/async"
	"github.com/joseph-ayodele/syllabus-tracker/internal/export"
	"github.com/joseph-ayodele/syllabus-tracker/internal/ingest"
	"github.com/joseph-ayodele/syllabus-tracker/internal/metrics"
	repo "github.com/joseph-ayodele/syllabus-tracker/internal/repository"
	"github.com/joseph-ayodele/syllabus-tracker/internal/server"
	"github.com/joseph-ayodele/syllabus-tracker/internal/syllabus"
)

func main() {
	cfg, err := common.LoadConfig(os.Getenv(common.EnvPrefix + "CONFIG"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.RequireDatabase(); err != nil {
		logger.Error("missing database configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("syllabusd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	dbResult, err := repo.InitDatabase(ctx, cfg.Database, false, logger)
	if err != nil {
		return err
	}
	defer dbResult.Cleanup()
	db := dbResult.DB

	if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	syllabi := repo.NewSyllabusRepository(db, logger)
	extractions := repo.NewExtractionRepository(db, logger)
	dates := repo.NewImportantDateRepository(db, logger)

	extractor := syllabus.NewExtractor(syllabus.DefaultCatalog(),
		syllabus.WithMaxInputChars(cfg.Extraction.MaxInputChars),
		syllabus.WithMethod(cfg.Extraction.Method),
		syllabus.WithLogger(logger),
	)
	processor := core.NewProcessor(logger, extractor, syllabi, extractions, m, cfg.Queue.ProcessTimeout)
	projector := core.NewProjector(logger, syllabi, extractions, dates, m)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithMaterializer(projector),
		async.WithMetrics(m),
	)

	ingestSvc := ingest.NewService(ingest.NewFSIngestor(syllabi, logger), queue, logger)

	httpSrv := server.New(server.Deps{
		DB:          db,
		Syllabi:     syllabi,
		Extractions: extractions,
		Dates:       dates,
		Ingest:      ingestSvc,
		Projector:   projector,
		Export:      export.NewService(dates, logger),
		Queue:       queue,
		Gatherer:    reg,
		Logger:      logger,
	})

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		return httpSrv.Start(cfg.Server.HTTPAddr)
	})
	if cfg.Watch.Dir != "" {
		g.Go(func() error {
			err := ingestSvc.Watch(gctx, ingest.WatchConfig{
				Roots:       []string{cfg.Watch.Dir},
				InitialScan: true,
				Debounce:    cfg.Watch.Debounce,
				Logger:      logger,
			}, cfg.Queue.Materialize)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		grpcServer.GracefulStop()
		queue.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	logger.Info("stopped")
	return nil
}
