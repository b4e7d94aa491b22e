package repository

import (
	"context"
	"sync"

	"platewatch-service/internal/domain/platewatch"
)

// MemoryStore is an in-process Store. It backs the "memory" driver and tests.
type MemoryStore struct {
	mu    sync.Mutex
	state *platewatch.StoreState
	opts  options
}

// NewMemoryStore starts from initial, or from an empty log when initial is nil.
func NewMemoryStore(initial *platewatch.StoreState, opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	if initial == nil {
		initial = &platewatch.StoreState{
			Detections:   []platewatch.Detection{},
			CameraStatus: DefaultCameraStatus(o.now()),
		}
	}
	return &MemoryStore{state: cloneState(initial), opts: o}
}

func (s *MemoryStore) Read(ctx context.Context) (*platewatch.StoreState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state), nil
}

func (s *MemoryStore) Write(ctx context.Context, state *platewatch.StoreState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = cloneState(state)
	return nil
}

func (s *MemoryStore) AddDetection(ctx context.Context, d platewatch.NewDetection) (platewatch.Detection, error) {
	if err := ctx.Err(); err != nil {
		return platewatch.Detection{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newDetectionRecord(s.state.LastDetectionID+1, d, s.opts.now())
	s.state.Detections = append([]platewatch.Detection{rec}, s.state.Detections...)
	s.state.LastDetectionID = rec.ID
	return rec, nil
}

func (s *MemoryStore) UpdateCameraStatus(ctx context.Context, u platewatch.CameraStatusUpdate) (platewatch.CameraStatus, error) {
	if err := ctx.Err(); err != nil {
		return platewatch.CameraStatus{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CameraStatus = mergeCameraStatus(s.state.CameraStatus, u, s.opts.now())
	return s.state.CameraStatus, nil
}
