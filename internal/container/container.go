package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-cane-vision/internal/analyzer"
	"go-cane-vision/internal/config"
	"go-cane-vision/internal/factory"
	"go-cane-vision/internal/logger"
	"go-cane-vision/internal/observer"
	"go-cane-vision/internal/service"
	"go-cane-vision/internal/storage"
	"go-cane-vision/internal/transport"
	"go-cane-vision/internal/worker"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	logger          *logrus.Logger
	engine          analyzer.Engine
	archiver        storage.ReportArchiver
	archivePool     *worker.WorkerPool
	publisher       *observer.EventPublisher
	analysisService service.AnalysisService
	handler         http.Handler
}

// NewContainer builds the dependency graph from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	log := logger.Logger
	components := factory.NewComponentFactory()

	engine, err := components.EngineFactory.CreateEngine(factory.MockEngine, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	archiver, err := components.ArchiverFactory.CreateArchiver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create archiver: %w", err)
	}

	publisher := observer.NewEventPublisher(log)
	publisher.Subscribe(observer.NewLoggingObserver(log))
	publisher.Subscribe(observer.NewPrometheusObserver())

	pool := worker.NewWorkerPool(cfg.ArchiveWorkers)
	pool.Start()

	analysisService := service.NewAnalysisService(engine, archiver, pool, publisher, log, service.Options{
		MaxImageSize:    cfg.MaxImageSize,
		AnalysisTimeout: cfg.AnalysisTimeout,
		ArchiveTimeout:  cfg.ArchiveTimeout,
	})
	handler := transport.NewHandler(analysisService, cfg)

	log.WithFields(logrus.Fields{
		"model_version": engine.ModelInfo().ModelVersion,
		"archiver":      archiver.Name(),
		"workers":       cfg.ArchiveWorkers,
	}).Info("Container initialized")

	return &Container{
		config:          cfg,
		logger:          log,
		engine:          engine,
		archiver:        archiver,
		archivePool:     pool,
		publisher:       publisher,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the analysis service
func (c *Container) Service() service.AnalysisService {
	return c.analysisService
}

// Close waits for queued archive jobs, bounded by ctx, then stops the pool
func (c *Container) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.archivePool.Wait()
		c.publisher.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("archive queue not drained: %w", ctx.Err())
	}

	c.archivePool.Close()
	stats := c.archivePool.GetStats()
	c.logger.WithFields(logrus.Fields{
		"archived":  stats.CompletedJobs,
		"submitted": stats.TotalJobs,
		"rejected":  stats.RejectedJobs,
		"panicked":  stats.PanickedJobs,
	}).Info("Archive pool stopped")
	return err
}
