package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-cane-vision/internal/metrics"
	"go-cane-vision/pkg/models"
)

// AnalysisEvent describes one step in the life of an analysis request
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	ImageID        string                 `json:"image_id"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ClientError    bool                   `json:"client_error,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Archiver       string                 `json:"archiver,omitempty"`
	Report         *models.AnalysisReport `json:"-"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	AnalysisStarted   EventType = "analysis_started"
	AnalysisCompleted EventType = "analysis_completed"
	AnalysisFailed    EventType = "analysis_failed"
	ReportArchived    EventType = "report_archived"
	ArchiveFailed     EventType = "archive_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"image_id":   event.ImageID,
		"success":    event.Success,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = float64(event.ProcessingTime.Microseconds()) / 1000
	}
	if event.Archiver != "" {
		fields["archiver"] = event.Archiver
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.Report != nil {
		fields["maturity_level"] = event.Report.Maturity.Level
		fields["pests"] = len(event.Report.Pests)
		fields["diseases"] = len(event.Report.Diseases)
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Field image analysis started")
	case AnalysisCompleted:
		entry.Info("Field image analysis completed")
	case AnalysisFailed:
		if event.ClientError {
			entry.Warn("Field image rejected")
		} else {
			entry.Error("Field image analysis failed")
		}
	case ReportArchived:
		entry.Debug("Report archived")
	case ArchiveFailed:
		entry.Error("Report archive failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// PrometheusObserver feeds analysis events into the service collectors
type PrometheusObserver struct{}

// NewPrometheusObserver registers the collectors and returns the observer
func NewPrometheusObserver() Observer {
	metrics.Register()
	return &PrometheusObserver{}
}

// OnEvent updates counters and histograms for terminal events
func (o *PrometheusObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisCompleted:
		metrics.AnalysesTotal.WithLabelValues("success").Inc()
		metrics.AnalysisDurationSeconds.Observe(event.ProcessingTime.Seconds())
		if event.Report != nil {
			metrics.MaturityLevelTotal.WithLabelValues(string(event.Report.Maturity.Level)).Inc()
			metrics.DetectionsTotal.WithLabelValues("pest").Add(float64(len(event.Report.Pests)))
			metrics.DetectionsTotal.WithLabelValues("disease").Add(float64(len(event.Report.Diseases)))
		}
	case AnalysisFailed:
		result := "error"
		if event.ClientError {
			result = "client_error"
		}
		metrics.AnalysesTotal.WithLabelValues(result).Inc()
	case ReportArchived:
		metrics.ArchiveTotal.WithLabelValues(event.Archiver, "success").Inc()
	case ArchiveFailed:
		metrics.ArchiveTotal.WithLabelValues(event.Archiver, "error").Inc()
	}
}

// GetObserverName returns the observer name
func (o *PrometheusObserver) GetObserverName() string {
	return "prometheus_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
	logger    *logrus.Logger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(logger *logrus.Logger) *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer on its own goroutine
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every delivered event has been handled
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
