package factory

import (
	"fmt"

	"go-cane-vision/internal/analyzer"
	"go-cane-vision/internal/config"
	"go-cane-vision/internal/storage"
	"go-cane-vision/pkg/validation"
)

// EngineType selects the analysis engine implementation
type EngineType string

const (
	// MockEngine draws seeded placeholder results
	MockEngine EngineType = "mock"
)

// EngineFactory creates analysis engines
type EngineFactory interface {
	CreateEngine(engineType EngineType, cfg *config.Config) (analyzer.Engine, error)
}

// ArchiverFactory creates report archivers
type ArchiverFactory interface {
	CreateArchiver(cfg *config.Config) (storage.ReportArchiver, error)
}

type engineFactory struct{}

// NewEngineFactory creates a new engine factory
func NewEngineFactory() EngineFactory {
	return &engineFactory{}
}

// CreateEngine creates an engine of the given type configured from cfg
func (f *engineFactory) CreateEngine(engineType EngineType, cfg *config.Config) (analyzer.Engine, error) {
	switch engineType {
	case MockEngine:
		return analyzer.NewMockEngine(analyzer.DefaultOptions().WithModelVersion(cfg.ModelVersion)), nil
	default:
		return nil, fmt.Errorf("unsupported engine type: %s", engineType)
	}
}

type archiverFactory struct {
	urlValidator *validation.URLValidator
}

// NewArchiverFactory creates a new archiver factory
func NewArchiverFactory() ArchiverFactory {
	return &archiverFactory{urlValidator: validation.NewURLValidator()}
}

// CreateArchiver builds the archiver named by cfg.ArchiveType
func (f *archiverFactory) CreateArchiver(cfg *config.Config) (storage.ReportArchiver, error) {
	switch cfg.ArchiveType {
	case config.ArchiveNone, "":
		return storage.NewNoopArchiver(), nil
	case config.ArchiveWebhook:
		if err := f.urlValidator.ValidateEndpointURL(cfg.ReportWebhookURL); err != nil {
			return nil, fmt.Errorf("REPORT_WEBHOOK_URL: %w", err)
		}
		return storage.NewWebhookArchiver(cfg.ReportWebhookURL, cfg.ArchiveTimeout), nil
	case config.ArchiveAzure:
		archiver, err := storage.NewAzureArchiver(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.AzureStorageContainer, cfg.ArchiveCellLevel)
		if err != nil {
			return nil, err
		}
		return archiver, nil
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.ArchiveType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	EngineFactory   EngineFactory
	ArchiverFactory ArchiverFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		EngineFactory:   NewEngineFactory(),
		ArchiverFactory: NewArchiverFactory(),
	}
}
