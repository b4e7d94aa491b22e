package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"platewatch-service/internal/domain/platewatch"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestJSONStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "store.json")
	s, err := NewJSONStore(path, zerolog.Nop(), WithClock(fixedClock))
	if err != nil {
		t.Fatalf("NewJSONStore failed: %v", err)
	}
	return s, path
}

func TestJSONStoreSeedsOnFirstRun(t *testing.T) {
	s, path := newTestJSONStore(t)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected store file to exist: %v", err)
	}

	state, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(state.Detections) != 8 {
		t.Fatalf("Expected 8 seeded detections, got %d", len(state.Detections))
	}
	if state.LastDetectionID != 8 {
		t.Errorf("Expected lastDetectionId 8, got %d", state.LastDetectionID)
	}

	first := state.Detections[0]
	if first.ID != 1 || first.Plate != "ABC-100" || first.Source != "North Gate" || first.Direction != platewatch.DirectionEntry {
		t.Errorf("Unexpected first seed %+v", first)
	}
	if first.Confidence != 80 {
		t.Errorf("Expected confidence 80, got %v", first.Confidence)
	}
	if first.CapturedAt != "2026-03-14T09:30:00.000Z" {
		t.Errorf("Unexpected capturedAt %s", first.CapturedAt)
	}

	last := state.Detections[7]
	if last.CapturedAt != "2026-03-14T07:45:00.000Z" {
		t.Errorf("Expected 15 minute stagger, got %s", last.CapturedAt)
	}
	if last.Direction != platewatch.DirectionExit || last.Confidence != 95 {
		t.Errorf("Unexpected last seed %+v", last)
	}

	cam := state.CameraStatus
	if cam.ID != 1 || cam.Status != platewatch.CameraIdle || cam.Mode != platewatch.ModeWebcam || cam.Resolution != "1920x1080" {
		t.Errorf("Unexpected seeded camera status %+v", cam)
	}
}

func TestJSONStoreKeepsExistingFile(t *testing.T) {
	s, path := newTestJSONStore(t)
	ctx := context.Background()

	if _, err := s.AddDetection(ctx, platewatch.NewDetection{Plate: "KEEP-1", Source: "Lot A", Direction: platewatch.DirectionEntry}); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewJSONStore(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	state, err := reopened.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Detections) != 9 {
		t.Errorf("Expected reopen to keep 9 detections, got %d", len(state.Detections))
	}
}

func TestJSONStoreAddDetection(t *testing.T) {
	s, path := newTestJSONStore(t)
	ctx := context.Background()

	rec, err := s.AddDetection(ctx, platewatch.NewDetection{
		Plate:      "XYZ-999",
		Confidence: 91.5,
		Source:     "South Gate",
		Direction:  platewatch.DirectionExit,
		CapturedAt: "2026-03-14T09:31:00.000Z",
	})
	if err != nil {
		t.Fatalf("AddDetection failed: %v", err)
	}

	if rec.ID != 9 {
		t.Errorf("Expected id 9, got %d", rec.ID)
	}
	if rec.CreatedAt != "2026-03-14T09:30:00.000Z" {
		t.Errorf("Expected createdAt from clock, got %s", rec.CreatedAt)
	}

	second, err := s.AddDetection(ctx, platewatch.NewDetection{Plate: "XYZ-998", Direction: platewatch.DirectionEntry})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID <= rec.ID {
		t.Errorf("Expected increasing ids, got %d after %d", second.ID, rec.ID)
	}

	// A fresh store over the same file sees the writes.
	reloaded, err := NewJSONStore(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	state, err := reloaded.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.LastDetectionID != second.ID {
		t.Errorf("Expected lastDetectionId %d, got %d", second.ID, state.LastDetectionID)
	}
	if state.Detections[0].ID != second.ID || state.Detections[1].ID != rec.ID {
		t.Errorf("Expected newest detections first, got ids %d, %d", state.Detections[0].ID, state.Detections[1].ID)
	}
}

func TestJSONStoreUpdateCameraStatus(t *testing.T) {
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	live := platewatch.CameraLive
	fps := 24.0
	status, err := s.UpdateCameraStatus(ctx, platewatch.CameraStatusUpdate{Status: &live, FPS: &fps})
	if err != nil {
		t.Fatalf("UpdateCameraStatus failed: %v", err)
	}

	if status.ID != 1 {
		t.Errorf("Expected id forced to 1, got %d", status.ID)
	}
	if status.Status != platewatch.CameraLive || status.FPS != 24 {
		t.Errorf("Expected merged fields, got %+v", status)
	}
	if status.Mode != platewatch.ModeWebcam || status.Resolution != "1920x1080" {
		t.Errorf("Expected untouched fields kept, got %+v", status)
	}

	state, err := s.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.CameraStatus != status {
		t.Errorf("Expected persisted status %+v, got %+v", status, state.CameraStatus)
	}
}

func TestJSONStoreSeesExternalEdits(t *testing.T) {
	s, path := newTestJSONStore(t)

	edited := `{"lastDetectionId": 41, "detections": [], "cameraStatus": {"id": 1, "status": "offline", "mode": "rtsp", "fps": 0, "resolution": "1280x720", "lastHeartbeat": "2026-03-14T00:00:00.000Z"}}`
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := s.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Detections) != 0 || state.CameraStatus.Status != platewatch.CameraOffline {
		t.Errorf("Expected external edit to be visible, got %+v", state)
	}

	rec, err := s.AddDetection(context.Background(), platewatch.NewDetection{Plate: "EDIT-1"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != 42 {
		t.Errorf("Expected id to continue from edited lastDetectionId, got %d", rec.ID)
	}
}

func TestJSONStoreMalformed(t *testing.T) {
	s, path := newTestJSONStore(t)

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Read(context.Background())
	if !errors.Is(err, ErrMalformedStore) {
		t.Fatalf("Expected ErrMalformedStore, got %v", err)
	}

	if _, err := s.AddDetection(context.Background(), platewatch.NewDetection{Plate: "BAD-1"}); !errors.Is(err, ErrMalformedStore) {
		t.Fatalf("Expected AddDetection to surface ErrMalformedStore, got %v", err)
	}
}

func TestJSONStoreCanceledContext(t *testing.T) {
	s, _ := newTestJSONStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}
