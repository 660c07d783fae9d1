package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "go-cane-vision/internal/errors"
	"go-cane-vision/pkg/models"
)

const webhookAttempts = 3

// WebhookArchiver posts each report as JSON to a configured endpoint
type WebhookArchiver struct {
	client   *http.Client
	endpoint string
	backoff  time.Duration
}

// NewWebhookArchiver creates an archiver posting to endpoint
func NewWebhookArchiver(endpoint string, timeout time.Duration) *WebhookArchiver {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &WebhookArchiver{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		endpoint: endpoint,
		backoff:  time.Second,
	}
}

func (w *WebhookArchiver) Name() string {
	return "webhook"
}

// Archive delivers the report. 5xx responses and transport errors are retried
// with linear backoff; 4xx responses fail immediately.
func (w *WebhookArchiver) Archive(ctx context.Context, report *models.AnalysisReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < webhookAttempts; attempt++ {
		retryable, err := w.post(ctx, report.ImageID, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			break
		}

		if attempt < webhookAttempts-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("archive report %s: %w", report.ImageID, ctx.Err())
			case <-time.After(time.Duration(attempt+1) * w.backoff):
			}
		}
	}

	return fmt.Errorf("failed to archive report after %d attempts: %w", webhookAttempts, lastErr)
}

func (w *WebhookArchiver) post(ctx context.Context, imageID string, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("invalid webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Go-Cane-Vision/1.0")
	req.Header.Set("X-Image-ID", imageID)

	resp, err := w.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, apperrors.NewNetworkError("webhook unreachable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return true, apperrors.NewNetworkError(fmt.Sprintf("server error: status code %d", resp.StatusCode), nil)
	default:
		return false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
}
