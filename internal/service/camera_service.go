package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"platewatch-service/internal/domain/platewatch"
	"platewatch-service/internal/repository"
)

type Heartbeat struct {
	Status     platewatch.CameraState
	Mode       platewatch.CameraMode
	FPS        float64
	Resolution string
}

// CameraService tracks the last heartbeat reported by the capture agent.
type CameraService struct {
	store repository.Store
	log   zerolog.Logger
}

func NewCameraService(store repository.Store, log zerolog.Logger) *CameraService {
	return &CameraService{store: store, log: log}
}

func (s *CameraService) Get(ctx context.Context) (*platewatch.CameraStatus, error) {
	state, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read camera status: %w", err)
	}
	return &state.CameraStatus, nil
}

func (s *CameraService) Heartbeat(ctx context.Context, hb Heartbeat) (*platewatch.CameraStatus, error) {
	if !ValidCameraState(hb.Status) {
		return nil, fmt.Errorf("%w: status must be idle, live or offline", ErrInvalidInput)
	}
	if !ValidCameraMode(hb.Mode) {
		return nil, fmt.Errorf("%w: mode must be webcam, rtsp or upload", ErrInvalidInput)
	}
	if hb.FPS < 0 || hb.FPS > 120 {
		return nil, fmt.Errorf("%w: fps must be between 0 and 120", ErrInvalidInput)
	}
	if !ResolutionPattern.MatchString(hb.Resolution) {
		return nil, fmt.Errorf("%w: resolution must look like 1920x1080", ErrInvalidInput)
	}

	status, err := s.store.UpdateCameraStatus(ctx, platewatch.CameraStatusUpdate{
		Status:     &hb.Status,
		Mode:       &hb.Mode,
		FPS:        &hb.FPS,
		Resolution: &hb.Resolution,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to update camera status")
		return nil, fmt.Errorf("failed to update camera status: %w", err)
	}

	s.log.Debug().
		Str("status", string(status.Status)).
		Str("mode", string(status.Mode)).
		Float64("fps", status.FPS).
		Str("resolution", status.Resolution).
		Msg("camera heartbeat")

	return &status, nil
}
