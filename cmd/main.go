package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/export"
	"github.com/sristy17/insider-Threat-Detection/internal/adapters/http/api"
	"github.com/sristy17/insider-Threat-Detection/internal/adapters/stream"
	service "github.com/sristy17/insider-Threat-Detection/internal/app"
	"github.com/sristy17/insider-Threat-Detection/internal/config"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/features"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/risk"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	enqueueRetryDelay = 100 * time.Millisecond

	logMaxSizeMB  = 50
	logMaxBackups = 5
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Re-initialize with the configured level and optional rotating file.
	if err := logger.Init(
		logger.WithLevel(cfg.LogLevel),
		logger.WithRotatingFile(cfg.LogFile, logMaxSizeMB, logMaxBackups),
	); err != nil {
		os.Stderr.WriteString("failed to configure logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Pre-batch the activity log so the expected batch count is known before
	// the first merge.
	batches, err := loadBatches(cfg)
	if err != nil {
		log.Error(ctx, "failed to load activity log", logger.String("path", cfg.RawCSV), logger.Error(err))
		return
	}
	log.Info(ctx, "activity log batched",
		logger.String("path", cfg.RawCSV),
		logger.Int("batches", len(batches)),
		logger.Int("batchSize", cfg.BatchSize),
	)

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWeights(cfg.RiskWeights),
		service.WithThresholds(cfg.RiskThresholds),
		service.WithNormalization(risk.Method(cfg.Normalization), cfg.ScoreMin, cfg.ScoreMax),
		service.WithModelDir(cfg.ModelDir),
		service.WithExporter(export.NewCSVSink(cfg.ScoredCSV, cfg.ProgressCSV)),
	}
	if len(batches) > 0 {
		opts = append(opts, service.WithTotalBatches(len(batches)))
	}
	var journal *export.JournalSink
	if cfg.JournalFile != "" {
		journal = export.NewJournalSink(cfg.JournalFile, cfg.JournalMaxSizeMB, cfg.JournalMaxBackups)
		opts = append(opts, service.WithExporter(journal))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()
	if journal != nil {
		defer journal.Close()
	}

	// Single pump: one goroutine owns every merge.
	queue := stream.NewInMemoryQueue(stream.WithCapacity(cfg.QueueSize))
	pump := stream.NewPump(queue, svc,
		stream.WithInterval(time.Duration(cfg.BatchIntervalMS)*time.Millisecond),
	)
	go pump.Run(ctx)
	go feedBatches(ctx, queue, batches, log)

	mux := http.NewServeMux()
	api.NewServer(svc, cfg.MaxScoresLimit).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	_ = queue.Close()
	if err := pump.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "pump shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "stopped")
}

// loadBatches reads the raw activity log, engineers features per employee,
// and splits the population into fixed-size batches. A missing log file is
// not fatal: the dashboard runs over an empty population.
func loadBatches(cfg *config.Config) ([]stream.Batch, error) {
	rows, err := features.LoadActivityCSV(cfg.RawCSV)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	records := features.Aggregate(rows, 0)
	var batches []stream.Batch
	for start := 0; start < len(records); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := make(stream.Batch, end-start)
		copy(batch, records[start:end])
		for i := range batch {
			batch[i].Batch = len(batches) + 1
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// feedBatches enqueues every batch in order, retrying briefly when the
// queue applies backpressure.
func feedBatches(ctx context.Context, queue stream.Queue, batches []stream.Batch, log logger.Logger) {
	for i, b := range batches {
		for !queue.Enqueue(ctx, b) {
			if ctx.Err() != nil || queue.IsClosed() {
				return
			}
			select {
			case <-time.After(enqueueRetryDelay):
			case <-ctx.Done():
				return
			}
		}
		log.Debug(ctx, "batch enqueued", logger.Int("batch", i+1), logger.Int("inBatch", len(b)))
	}
}
