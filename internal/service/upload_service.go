package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"platewatch-service/internal/domain/platewatch"
	"platewatch-service/internal/metrics"
	"platewatch-service/internal/repository"
)

const DefaultContentType = "application/octet-stream"

var (
	dataURLPattern   = regexp.MustCompile(`^data:(.+);base64,(.*)$`)
	unsafeNameChars  = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	minDataURLLength = 16
)

type SaveUploadInput struct {
	FileName    string
	ContentType string
	DataURL     string
}

// UploadService decodes base64 data URLs into files in the upload directory.
type UploadService struct {
	repo    *repository.UploadRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewUploadService(repo *repository.UploadRepository, m *metrics.Metrics, log zerolog.Logger) *UploadService {
	return &UploadService{
		repo:    repo,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

func (s *UploadService) WithClock(now func() time.Time) *UploadService {
	s.now = now
	return s
}

func (s *UploadService) List(ctx context.Context) ([]platewatch.UploadRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return records, nil
}

func (s *UploadService) Save(ctx context.Context, in SaveUploadInput) (*platewatch.UploadRecord, error) {
	if in.FileName == "" {
		return nil, fmt.Errorf("%w: fileName is required", ErrInvalidInput)
	}
	if in.ContentType == "" {
		in.ContentType = DefaultContentType
	}

	data, err := DecodeDataURL(in.DataURL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + SanitizeFileName(in.FileName)

	if err := s.repo.Create(ctx, name, data); err != nil {
		s.log.Error().Err(err).Str("file", name).Msg("failed to save upload")
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	if s.metrics != nil {
		s.metrics.UploadsSaved.Inc()
		s.metrics.UploadBytes.Add(float64(len(data)))
	}

	s.log.Info().
		Str("file", name).
		Int("size", len(data)).
		Str("content_type", in.ContentType).
		Msg("saved upload")

	return &platewatch.UploadRecord{
		FileName:    name,
		Size:        int64(len(data)),
		UploadedAt:  platewatch.FormatTime(now),
		ContentType: in.ContentType,
	}, nil
}

// DecodeDataURL extracts the body of a "data:<mime>;base64,<payload>" string.
func DecodeDataURL(dataURL string) ([]byte, error) {
	if len(dataURL) < minDataURLLength {
		return nil, fmt.Errorf("%w: data URL is too short", ErrInvalidPayload)
	}
	m := dataURLPattern.FindStringSubmatch(dataURL)
	if m == nil || m[2] == "" {
		return nil, fmt.Errorf("%w: expected a base64 data URL", ErrInvalidPayload)
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(m[2])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: base64 body does not decode", ErrInvalidPayload)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: decoded body is empty", ErrInvalidPayload)
	}
	return data, nil
}

// SanitizeFileName replaces every character outside [a-zA-Z0-9._-] with "_".
func SanitizeFileName(name string) string {
	clean := unsafeNameChars.ReplaceAllString(name, "_")
	if clean == "" {
		return "upload"
	}
	return clean
}
