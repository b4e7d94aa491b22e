package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"platewatch-service/internal/domain/platewatch"
	"platewatch-service/internal/repository"
)

func TestHeartbeat(t *testing.T) {
	store := repository.NewMemoryStore(repository.SeedState(testNow), repository.WithClock(clock))
	svc := NewCameraService(store, zerolog.Nop())
	ctx := context.Background()

	status, err := svc.Heartbeat(ctx, Heartbeat{
		Status:     platewatch.CameraLive,
		Mode:       platewatch.ModeRTSP,
		FPS:        29.97,
		Resolution: "1920x1080",
	})
	if err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}
	if status.ID != 1 || status.Status != platewatch.CameraLive || status.Mode != platewatch.ModeRTSP || status.FPS != 29.97 {
		t.Errorf("Unexpected status %+v", status)
	}
	if status.LastHeartbeat != "2026-03-14T12:00:00.000Z" {
		t.Errorf("Expected lastHeartbeat refreshed, got %s", status.LastHeartbeat)
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *status {
		t.Errorf("Expected Get to return last heartbeat, got %+v", got)
	}
}

func TestHeartbeatValidation(t *testing.T) {
	valid := Heartbeat{Status: platewatch.CameraIdle, Mode: platewatch.ModeWebcam, FPS: 0, Resolution: "640x480"}

	tests := []struct {
		name   string
		mutate func(hb *Heartbeat)
	}{
		{"resolution without height", func(hb *Heartbeat) { hb.Resolution = "1920" }},
		{"resolution too many digits", func(hb *Heartbeat) { hb.Resolution = "19200x1080" }},
		{"unknown status", func(hb *Heartbeat) { hb.Status = "busy" }},
		{"unknown mode", func(hb *Heartbeat) { hb.Mode = "usb" }},
		{"fps negative", func(hb *Heartbeat) { hb.FPS = -1 }},
		{"fps above 120", func(hb *Heartbeat) { hb.FPS = 121 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCameraService(repository.NewMemoryStore(nil), zerolog.Nop())
			hb := valid
			tt.mutate(&hb)
			if _, err := svc.Heartbeat(context.Background(), hb); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}

	svc := NewCameraService(repository.NewMemoryStore(nil), zerolog.Nop())
	if _, err := svc.Heartbeat(context.Background(), valid); err != nil {
		t.Fatalf("Expected valid heartbeat to pass, got %v", err)
	}
}
