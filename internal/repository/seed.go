package repository

import (
	"fmt"
	"time"

	"platewatch-service/internal/domain/platewatch"
)

var seedSources = []string{"North Gate", "South Gate", "Lot A", "Lot B"}

// SeedState is the example dataset written when no store exists yet:
// eight detections fifteen minutes apart and an idle webcam.
func SeedState(now time.Time) *platewatch.StoreState {
	directions := []platewatch.Direction{platewatch.DirectionEntry, platewatch.DirectionExit}
	detections := make([]platewatch.Detection, 0, 8)

	for i := 0; i < 8; i++ {
		capturedAt := platewatch.FormatTime(now.Add(-time.Duration(i) * 15 * time.Minute))
		detections = append(detections, platewatch.Detection{
			ID:         int64(i + 1),
			Plate:      fmt.Sprintf("ABC-%d", 100+i),
			Confidence: float64(80 + (i%4)*5),
			Source:     seedSources[i%len(seedSources)],
			Direction:  directions[i%len(directions)],
			CapturedAt: capturedAt,
			CreatedAt:  capturedAt,
		})
	}

	return &platewatch.StoreState{
		LastDetectionID: int64(len(detections)),
		Detections:      detections,
		CameraStatus:    DefaultCameraStatus(now),
	}
}

func DefaultCameraStatus(now time.Time) platewatch.CameraStatus {
	return platewatch.CameraStatus{
		ID:            platewatch.CameraStatusID,
		Status:        platewatch.CameraIdle,
		Mode:          platewatch.ModeWebcam,
		FPS:           0,
		Resolution:    "1920x1080",
		LastHeartbeat: platewatch.FormatTime(now),
	}
}
