package repository

import (
	"context"
	"errors"
	"time"

	"platewatch-service/internal/domain/platewatch"
)

// ErrMalformedStore is returned when the persisted document cannot be decoded.
var ErrMalformedStore = errors.New("malformed store document")

// Store persists the detection log and the camera status singleton.
type Store interface {
	Read(ctx context.Context) (*platewatch.StoreState, error)
	Write(ctx context.Context, state *platewatch.StoreState) error
	AddDetection(ctx context.Context, d platewatch.NewDetection) (platewatch.Detection, error)
	UpdateCameraStatus(ctx context.Context, u platewatch.CameraStatusUpdate) (platewatch.CameraStatus, error)
}

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock overrides the time source used for createdAt, lastHeartbeat and seeding.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newDetectionRecord(id int64, d platewatch.NewDetection, now time.Time) platewatch.Detection {
	return platewatch.Detection{
		ID:         id,
		Plate:      d.Plate,
		Confidence: d.Confidence,
		Source:     d.Source,
		Direction:  d.Direction,
		ImageURL:   d.ImageURL,
		CapturedAt: d.CapturedAt,
		CreatedAt:  platewatch.FormatTime(now),
	}
}

func mergeCameraStatus(cur platewatch.CameraStatus, u platewatch.CameraStatusUpdate, now time.Time) platewatch.CameraStatus {
	if u.Status != nil {
		cur.Status = *u.Status
	}
	if u.Mode != nil {
		cur.Mode = *u.Mode
	}
	if u.FPS != nil {
		cur.FPS = *u.FPS
	}
	if u.Resolution != nil {
		cur.Resolution = *u.Resolution
	}
	cur.ID = platewatch.CameraStatusID
	cur.LastHeartbeat = platewatch.FormatTime(now)
	return cur
}

func cloneState(s *platewatch.StoreState) *platewatch.StoreState {
	out := *s
	out.Detections = make([]platewatch.Detection, len(s.Detections))
	copy(out.Detections, s.Detections)
	return &out
}
