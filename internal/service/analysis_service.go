package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go-cane-vision/internal/analyzer"
	apperrors "go-cane-vision/internal/errors"
	"go-cane-vision/internal/observer"
	"go-cane-vision/internal/storage"
	"go-cane-vision/internal/worker"
	"go-cane-vision/pkg/imagemeta"
	"go-cane-vision/pkg/models"
	"go-cane-vision/pkg/validation"
)

// InternalErrorMessage is returned to clients for any failure that is not their fault
const InternalErrorMessage = "Internal server error during image analysis"

// AnalysisRequest carries one upload after multipart decoding
type AnalysisRequest struct {
	RequestID string
	ImageID   string
	ImageData []byte
	Lat       float64
	Lon       float64
	Altitude  *float64
	Timestamp string
}

// AnalysisService orchestrates validation, analysis and archiving of field images
type AnalysisService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisReport, error)
	ModelInfo() models.ModelInfo
	Catalog() *analyzer.Catalog
}

// Options tunes limits and timeouts of the service
type Options struct {
	MaxImageSize    int64
	AnalysisTimeout time.Duration
	ArchiveTimeout  time.Duration
	Now             func() time.Time
}

// DefaultServiceOptions matches the documented API limits
func DefaultServiceOptions() Options {
	return Options{
		MaxImageSize:    10 * 1024 * 1024,
		AnalysisTimeout: 20 * time.Second,
		ArchiveTimeout:  15 * time.Second,
		Now:             time.Now,
	}
}

type analysisService struct {
	engine    analyzer.Engine
	archiver  storage.ReportArchiver
	pool      *worker.WorkerPool
	publisher observer.Subject
	logger    *logrus.Logger
	opts      Options
}

// NewAnalysisService wires the engine with archiving and event publishing.
// The pool must already be started; archiving is skipped for the no-op archiver.
func NewAnalysisService(
	engine analyzer.Engine,
	archiver storage.ReportArchiver,
	pool *worker.WorkerPool,
	publisher observer.Subject,
	logger *logrus.Logger,
	opts Options,
) AnalysisService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if archiver == nil {
		archiver = storage.NewNoopArchiver()
	}
	return &analysisService{
		engine:    engine,
		archiver:  archiver,
		pool:      pool,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

func (s *analysisService) Analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisReport, error) {
	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		RequestID: req.RequestID,
		ImageID:   req.ImageID,
		Metadata:  map[string]interface{}{"bytes": len(req.ImageData)},
	})

	report, err := s.analyze(ctx, req)
	if err != nil {
		err = asServiceError(err)
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			RequestID:      req.RequestID,
			ImageID:        req.ImageID,
			ProcessingTime: time.Since(start),
			ClientError:    apperrors.IsClientError(err),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	s.checkCaptureMetadata(req, report)
	s.archive(req.RequestID, report)

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		RequestID:      req.RequestID,
		ImageID:        report.ImageID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Report:         report,
	})
	return report, nil
}

func (s *analysisService) analyze(ctx context.Context, req AnalysisRequest) (*models.AnalysisReport, error) {
	if len(req.ImageData) == 0 {
		return nil, apperrors.NewValidationError("Empty image file", nil)
	}
	if s.opts.MaxImageSize > 0 && int64(len(req.ImageData)) > s.opts.MaxImageSize {
		return nil, apperrors.NewPayloadTooLargeError(
			fmt.Sprintf("Image file too large. Maximum %dMB.", s.opts.MaxImageSize/(1024*1024)), nil)
	}
	if err := validation.ValidateImageID(req.ImageID); err != nil {
		return nil, err
	}
	if err := validation.ValidateGPS(req.Lat, req.Lon, req.Altitude); err != nil {
		return nil, err
	}
	timestamp, err := validation.ParseTimestamp(req.Timestamp, s.opts.Now)
	if err != nil {
		return nil, err
	}

	info, err := analyzer.ProbeImage(req.ImageData)
	if err != nil {
		return nil, err
	}

	if s.opts.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AnalysisTimeout)
		defer cancel()
	}

	gps := models.GPSCoordinates{Lat: req.Lat, Lon: req.Lon, Altitude: req.Altitude}
	return s.engine.Analyze(ctx, info, req.ImageID, gps, timestamp)
}

// checkCaptureMetadata warns when the photo's own metadata disagrees with the form fields
func (s *analysisService) checkCaptureMetadata(req AnalysisRequest, report *models.AnalysisReport) {
	meta, err := imagemeta.ReadCapture(req.ImageData)
	if err != nil {
		return
	}
	s.compareCapture(meta, req, report.Timestamp)
}

func (s *analysisService) compareCapture(meta imagemeta.CaptureMetadata, req AnalysisRequest, ts time.Time) {
	fields := logrus.Fields{"request_id": req.RequestID, "image_id": req.ImageID}
	if meta.Camera != "" {
		fields["camera"] = meta.Camera
	}
	if meta.Rotated() {
		fields["orientation"] = meta.Orientation
	}

	consistent := true
	if meta.GPSDrift(req.Lat, req.Lon, imagemeta.DefaultGPSTolerance) {
		consistent = false
		s.logger.WithFields(fields).WithFields(logrus.Fields{
			"exif_lat": *meta.Lat,
			"exif_lon": *meta.Lon,
			"lat":      req.Lat,
			"lon":      req.Lon,
		}).Warn("EXIF GPS differs from submitted coordinates")
	}
	// Without a submitted timestamp the report uses the server clock, which
	// says nothing about when the photo was taken.
	if req.Timestamp != "" && meta.TimeDrift(ts, imagemeta.DefaultTimeTolerance) {
		consistent = false
		s.logger.WithFields(fields).WithFields(logrus.Fields{
			"exif_taken": meta.Taken.UTC().Format(time.RFC3339),
			"timestamp":  ts.UTC().Format(time.RFC3339),
		}).Warn("EXIF capture time differs from submitted timestamp")
	}
	if consistent {
		s.logger.WithFields(fields).Debug("EXIF capture metadata consistent")
	}
}

// archive hands the report to the worker pool without waiting for queue space.
// Failures are reported as events only.
func (s *analysisService) archive(requestID string, report *models.AnalysisReport) {
	if _, noop := s.archiver.(storage.NoopArchiver); noop || s.pool == nil {
		return
	}

	name := s.archiver.Name()
	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ArchiveTimeout)
		defer cancel()

		event := observer.AnalysisEvent{
			EventType: observer.ReportArchived,
			RequestID: requestID,
			ImageID:   report.ImageID,
			Archiver:  name,
			Success:   true,
		}
		if err := s.archiver.Archive(ctx, report); err != nil {
			event.EventType = observer.ArchiveFailed
			event.Success = false
			event.ErrorMessage = err.Error()
		}
		s.publish(ctx, event)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_id":   report.ImageID,
			"archiver":   name,
		}).WithError(err).Warn("Report not queued for archiving")
		s.publish(context.Background(), observer.AnalysisEvent{
			EventType:    observer.ArchiveFailed,
			RequestID:    requestID,
			ImageID:      report.ImageID,
			Archiver:     name,
			ErrorMessage: err.Error(),
		})
	}
}

func (s *analysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}

func (s *analysisService) ModelInfo() models.ModelInfo {
	return s.engine.ModelInfo()
}

func (s *analysisService) Catalog() *analyzer.Catalog {
	return s.engine.Catalog()
}

// asServiceError keeps typed errors and hides everything else behind the generic message
func asServiceError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.NewInternalError(InternalErrorMessage, err)
}
