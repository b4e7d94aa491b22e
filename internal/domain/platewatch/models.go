package platewatch

import (
	"time"
)

// TimeLayout is the canonical ISO-8601 form used for every stored timestamp.
// Fixed width keeps lexicographic order equal to chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in TimeLayout, always in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

type CameraState string

const (
	CameraIdle    CameraState = "idle"
	CameraLive    CameraState = "live"
	CameraOffline CameraState = "offline"
)

type CameraMode string

const (
	ModeWebcam CameraMode = "webcam"
	ModeRTSP   CameraMode = "rtsp"
	ModeUpload CameraMode = "upload"
)

// CameraStatusID is the fixed id of the singleton camera status record.
const CameraStatusID = 1

type Detection struct {
	ID         int64     `json:"id"`
	Plate      string    `json:"plate"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Direction  Direction `json:"direction"`
	ImageURL   *string   `json:"imageUrl"`
	CapturedAt string    `json:"capturedAt"`
	CreatedAt  string    `json:"createdAt"`
}

// NewDetection is a detection before the store assigns id and createdAt.
type NewDetection struct {
	Plate      string
	Confidence float64
	Source     string
	Direction  Direction
	ImageURL   *string
	CapturedAt string
}

type CameraStatus struct {
	ID            int         `json:"id"`
	Status        CameraState `json:"status"`
	Mode          CameraMode  `json:"mode"`
	FPS           float64     `json:"fps"`
	Resolution    string      `json:"resolution"`
	LastHeartbeat string      `json:"lastHeartbeat"`
}

// CameraStatusUpdate carries the heartbeat fields merged into the singleton.
// Nil fields keep their previous value.
type CameraStatusUpdate struct {
	Status     *CameraState
	Mode       *CameraMode
	FPS        *float64
	Resolution *string
}

// StoreState is the whole persisted document.
type StoreState struct {
	LastDetectionID int64        `json:"lastDetectionId"`
	Detections      []Detection  `json:"detections"`
	CameraStatus    CameraStatus `json:"cameraStatus"`
}

type UploadRecord struct {
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	UploadedAt  string `json:"uploadedAt"`
	ContentType string `json:"contentType,omitempty"`
}

type DetectionFilter struct {
	Search    string
	Source    string
	Direction Direction
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type DetectionPage struct {
	Data       []Detection `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Summary struct {
	EntryCount   int          `json:"entryCount"`
	ExitCount    int          `json:"exitCount"`
	UniquePlates int          `json:"uniquePlates"`
	CameraStatus CameraStatus `json:"cameraStatus"`
}
