package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"platewatch-service/internal/domain/platewatch"
)

// JSONStore keeps the whole state in one JSON document. Every call re-reads
// the file, so edits made outside the process are picked up immediately.
// Mutations are serialized inside the process; other processes writing the
// same file are not coordinated with.
type JSONStore struct {
	path string
	mu   sync.Mutex
	opts options
	log  zerolog.Logger
}

// NewJSONStore opens the document at path, creating it with the seed dataset
// when it does not exist.
func NewJSONStore(path string, log zerolog.Logger, opts ...Option) (*JSONStore, error) {
	s := &JSONStore{
		path: path,
		opts: buildOptions(opts),
		log:  log,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := s.write(SeedState(s.opts.now())); err != nil {
			return nil, err
		}
		s.log.Info().Str("path", path).Msg("created store with seed data")
		return s, nil
	default:
		return nil, fmt.Errorf("stat store: %w", err)
	}
}

func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Read(ctx context.Context) (*platewatch.StoreState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.read()
}

func (s *JSONStore) Write(ctx context.Context, state *platewatch.StoreState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(state)
}

func (s *JSONStore) AddDetection(ctx context.Context, d platewatch.NewDetection) (platewatch.Detection, error) {
	if err := ctx.Err(); err != nil {
		return platewatch.Detection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return platewatch.Detection{}, err
	}

	rec := newDetectionRecord(state.LastDetectionID+1, d, s.opts.now())
	state.Detections = append([]platewatch.Detection{rec}, state.Detections...)
	state.LastDetectionID = rec.ID

	if err := s.write(state); err != nil {
		return platewatch.Detection{}, err
	}
	return rec, nil
}

func (s *JSONStore) UpdateCameraStatus(ctx context.Context, u platewatch.CameraStatusUpdate) (platewatch.CameraStatus, error) {
	if err := ctx.Err(); err != nil {
		return platewatch.CameraStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.read()
	if err != nil {
		return platewatch.CameraStatus{}, err
	}

	state.CameraStatus = mergeCameraStatus(state.CameraStatus, u, s.opts.now())
	if err := s.write(state); err != nil {
		return platewatch.CameraStatus{}, err
	}
	return state.CameraStatus, nil
}

func (s *JSONStore) read() (*platewatch.StoreState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	var state platewatch.StoreState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStore, s.path, err)
	}
	if state.Detections == nil {
		state.Detections = []platewatch.Detection{}
	}
	return &state, nil
}

// write replaces the document through a temp file and rename so readers
// never observe a half written file.
func (s *JSONStore) write(state *platewatch.StoreState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
