package transport

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"go-cane-vision/internal/analyzer"
	"go-cane-vision/internal/config"
	apperrors "go-cane-vision/internal/errors"
	"go-cane-vision/internal/logger"
	"go-cane-vision/internal/metrics"
	"go-cane-vision/internal/service"
	"go-cane-vision/pkg/models"
)

const serviceName = "Cane Vision API"

var acceptedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// NewHandler builds the gin engine serving the analysis API
func NewHandler(svc service.AnalysisService, cfg *config.Config) http.Handler {
	metrics.Register()

	r := gin.New()
	r.Use(requestID(), requestLogger())
	if cfg.EnableGzip {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}
	r.Use(
		gin.CustomRecovery(recoverWithEnvelope),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		requestTimeout(cfg.RequestTimeout),
		errorHandler(),
	)

	r.GET("/", serviceInfo(cfg))
	r.GET("/health", healthCheck(svc))
	r.GET("/model-info", modelInfo(svc))
	r.POST("/analyze", analyzeImage(svc, cfg))
	r.GET("/catalog", listCatalog(svc))
	r.GET("/catalog/lookup", lookupCatalog(svc))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		respondError(c, apperrors.NewNotFoundError("Not Found", nil))
	})

	return r
}

func serviceInfo(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.ServiceInfo{
			Service: serviceName,
			Version: cfg.ServiceVersion,
			Status:  "operational",
			Endpoints: map[string]string{
				"analyze":        "/analyze (POST)",
				"health":         "/health (GET)",
				"model_info":     "/model-info (GET)",
				"catalog":        "/catalog (GET)",
				"catalog_lookup": "/catalog/lookup?name= (GET)",
				"metrics":        "/metrics (GET)",
			},
		})
	}
}

func healthCheck(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Analyzer:  svc.ModelInfo(),
		})
	}
}

func modelInfo(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.ModelInfo())
	}
}

func listCatalog(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"entries": svc.Catalog().Entries()})
	}
}

func lookupCatalog(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("name"))
		if name == "" {
			_ = c.Error(apperrors.NewValidationError("Missing required query parameter: name", nil))
			return
		}
		c.JSON(http.StatusOK, svc.Catalog().Lookup(name, analyzer.DefaultLookupDistance))
	}
}

func analyzeImage(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := parseAnalysisForm(c, cfg.MaxImageSize)
		if err != nil {
			_ = c.Error(err)
			return
		}
		req.RequestID = c.GetString(requestIDKey)

		report, err := svc.Analyze(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// parseAnalysisForm decodes the multipart upload into a service request
func parseAnalysisForm(c *gin.Context, maxImageSize int64) (service.AnalysisRequest, error) {
	var req service.AnalysisRequest

	file, err := c.FormFile("image")
	if err != nil {
		return req, formError(err, maxImageSize, "image")
	}

	contentType := file.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || !acceptedContentTypes[mediaType] {
		shown := contentType
		if shown == "" {
			shown = "None"
		}
		return req, apperrors.NewValidationError(fmt.Sprintf("Invalid image format: %s. Use JPEG or PNG.", shown), nil)
	}

	if req.ImageData, err = readUpload(file, maxImageSize); err != nil {
		return req, err
	}

	imageID, ok := c.GetPostForm("image_id")
	if !ok {
		return req, missingField("image_id")
	}
	req.ImageID = imageID

	if req.Lat, err = requiredFloat(c, "lat"); err != nil {
		return req, err
	}
	if req.Lon, err = requiredFloat(c, "lon"); err != nil {
		return req, err
	}
	if raw := strings.TrimSpace(c.PostForm("altitude")); raw != "" {
		altitude, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, invalidNumber("altitude")
		}
		req.Altitude = &altitude
	}
	req.Timestamp = c.PostForm("timestamp")

	return req, nil
}

// readUpload reads at most maxImageSize+1 bytes so the service can tell an oversized file apart
func readUpload(file *multipart.FileHeader, maxImageSize int64) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("Unable to read uploaded image", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, apperrors.NewValidationError("Unable to read uploaded image", err)
	}
	return data, nil
}

func requiredFloat(c *gin.Context, field string) (float64, error) {
	raw, ok := c.GetPostForm(field)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, missingField(field)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, invalidNumber(field)
	}
	return v, nil
}

func formError(err error, maxImageSize int64, field string) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return apperrors.NewPayloadTooLargeError(
			fmt.Sprintf("Image file too large. Maximum %dMB.", maxImageSize/(1024*1024)), err)
	case errors.Is(err, http.ErrMissingFile):
		return missingField(field)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, multipart.ErrMessageTooLarge):
		return apperrors.NewValidationError("Request must be multipart/form-data", err)
	default:
		return apperrors.NewValidationError("Malformed multipart form", err)
	}
}

func missingField(field string) error {
	return apperrors.NewValidationError(fmt.Sprintf("Missing required field: %s", field), nil)
}

func invalidNumber(field string) error {
	return apperrors.NewValidationError(fmt.Sprintf("Invalid value for %s: must be a number", field), nil)
}

// respondError writes the error envelope. Only client errors and typed
// server errors expose their message.
func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	message := service.InternalErrorMessage
	if appErr, ok := apperrors.AsAppError(err); ok {
		message = appErr.Message
	}

	entry := logger.WithRequestID(c.GetString(requestIDKey)).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorEnvelope{
		Error:      message,
		StatusCode: code,
		Timestamp:  time.Now().UTC(),
	})
}
