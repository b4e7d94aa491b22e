package service

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"platewatch-service/internal/domain/platewatch"
	"platewatch-service/internal/metrics"
	"platewatch-service/internal/repository"
	"platewatch-service/internal/utils"
)

// Publisher receives every detection right after it is stored.
type Publisher interface {
	Publish(det platewatch.Detection) int
}

type CreateDetectionInput struct {
	Plate      string
	Confidence float64
	Source     string
	Direction  platewatch.Direction
	ImageURL   *string
	CapturedAt string
}

type DetectionService struct {
	store     repository.Store
	publisher Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time

	// createMu keeps store order and publish order identical.
	createMu sync.Mutex
}

func NewDetectionService(store repository.Store, publisher Publisher, m *metrics.Metrics, log zerolog.Logger) *DetectionService {
	return &DetectionService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for defaults and the summary day.
func (s *DetectionService) WithClock(now func() time.Time) *DetectionService {
	s.now = now
	return s
}

func (s *DetectionService) Create(ctx context.Context, in CreateDetectionInput) (*platewatch.Detection, error) {
	if err := validateDetectionInput(&in); err != nil {
		return nil, err
	}

	capturedAt := platewatch.FormatTime(s.now())
	if in.CapturedAt != "" {
		ts, err := ParseTimestamp(in.CapturedAt)
		if err != nil {
			return nil, err
		}
		capturedAt = ts
	}

	imageURL := in.ImageURL
	if imageURL != nil && *imageURL == "" {
		imageURL = nil
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	rec, err := s.store.AddDetection(ctx, platewatch.NewDetection{
		Plate:      utils.NormalizePlate(in.Plate),
		Confidence: in.Confidence,
		Source:     in.Source,
		Direction:  in.Direction,
		ImageURL:   imageURL,
		CapturedAt: capturedAt,
	})
	if err != nil {
		s.log.Error().
			Err(err).
			Str("plate", in.Plate).
			Str("source", in.Source).
			Msg("failed to store detection")
		return nil, fmt.Errorf("failed to store detection: %w", err)
	}

	if s.metrics != nil {
		s.metrics.DetectionsCreated.WithLabelValues(string(rec.Direction)).Inc()
	}

	delivered := 0
	if s.publisher != nil {
		delivered = s.publisher.Publish(rec)
	}

	s.log.Info().
		Int64("detection_id", rec.ID).
		Str("plate", rec.Plate).
		Str("source", rec.Source).
		Str("direction", string(rec.Direction)).
		Float64("confidence", rec.Confidence).
		Int("listeners", delivered).
		Msg("saved detection")

	return &rec, nil
}

func (s *DetectionService) List(ctx context.Context, f platewatch.DetectionFilter, page, limit int) (*platewatch.DetectionPage, error) {
	if f.Direction != "" && !ValidDirection(f.Direction) {
		return nil, fmt.Errorf("%w: direction must be entry or exit", ErrInvalidInput)
	}
	if page < 1 || limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: page must be >= 1 and limit between 1 and %d", ErrInvalidInput, MaxLimit)
	}

	state, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}

	result := QueryDetections(state.Detections, f, page, limit)
	return &result, nil
}

func (s *DetectionService) Get(ctx context.Context, id int64) (*platewatch.Detection, error) {
	state, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}

	det, ok := FindDetection(state.Detections, id)
	if !ok {
		return nil, fmt.Errorf("%w: detection %d", ErrNotFound, id)
	}
	return &det, nil
}

// Summary reports today's traffic (UTC calendar day) with the camera status.
func (s *DetectionService) Summary(ctx context.Context) (*platewatch.Summary, error) {
	state, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	today := platewatch.FormatTime(s.now())[:len("2006-01-02")]
	entries, exits, unique := Summarize(state.Detections, today)

	return &platewatch.Summary{
		EntryCount:   entries,
		ExitCount:    exits,
		UniquePlates: unique,
		CameraStatus: state.CameraStatus,
	}, nil
}

func validateDetectionInput(in *CreateDetectionInput) error {
	if n := utf8.RuneCountInString(in.Plate); n < 4 || n > 12 {
		return fmt.Errorf("%w: plate must be 4 to 12 characters", ErrInvalidInput)
	}
	if !PlatePattern.MatchString(in.Plate) {
		return fmt.Errorf("%w: plate should contain only uppercase letters, digits, spaces, or hyphen", ErrInvalidInput)
	}
	if in.Confidence < 0 || in.Confidence > 100 {
		return fmt.Errorf("%w: confidence must be between 0 and 100", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(in.Source); n < 2 || n > 64 {
		return fmt.Errorf("%w: source must be 2 to 64 characters", ErrInvalidInput)
	}
	if in.Direction == "" {
		in.Direction = platewatch.DirectionEntry
	}
	if !ValidDirection(in.Direction) {
		return fmt.Errorf("%w: direction must be entry or exit", ErrInvalidInput)
	}
	return nil
}
