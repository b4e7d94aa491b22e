package service

import (
	"fmt"
	"regexp"
	"time"

	"platewatch-service/internal/domain/platewatch"
)

var (
	PlatePattern      = regexp.MustCompile(`^[A-Z0-9\- ]+$`)
	ResolutionPattern = regexp.MustCompile(`^\d{3,4}x\d{3,4}$`)
)

// ParseTimestamp accepts an RFC 3339 / ISO-8601 datetime and returns it in the
// canonical stored form.
func ParseTimestamp(s string) (string, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not an ISO-8601 datetime", ErrInvalidInput, s)
	}
	return platewatch.FormatTime(t), nil
}

func ValidDirection(d platewatch.Direction) bool {
	return d == platewatch.DirectionEntry || d == platewatch.DirectionExit
}

func ValidCameraState(s platewatch.CameraState) bool {
	switch s {
	case platewatch.CameraIdle, platewatch.CameraLive, platewatch.CameraOffline:
		return true
	}
	return false
}

func ValidCameraMode(m platewatch.CameraMode) bool {
	switch m {
	case platewatch.ModeWebcam, platewatch.ModeRTSP, platewatch.ModeUpload:
		return true
	}
	return false
}
