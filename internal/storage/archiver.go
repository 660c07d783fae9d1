package storage

import (
	"context"

	"go-cane-vision/pkg/models"
)

// ReportArchiver persists finished analysis reports outside the request path
type ReportArchiver interface {
	Archive(ctx context.Context, report *models.AnalysisReport) error
	Name() string
}

// NoopArchiver discards reports. It is used when archiving is disabled.
type NoopArchiver struct{}

func NewNoopArchiver() ReportArchiver {
	return NoopArchiver{}
}

func (NoopArchiver) Archive(ctx context.Context, report *models.AnalysisReport) error {
	return nil
}

func (NoopArchiver) Name() string {
	return "none"
}
