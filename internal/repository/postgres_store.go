package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"platewatch-service/internal/domain/platewatch"
)

type DetectionRow struct {
	ID         int64   `gorm:"primaryKey"`
	Plate      string  `gorm:"not null"`
	Confidence float64 `gorm:"not null"`
	Source     string  `gorm:"not null"`
	Direction  string  `gorm:"not null"`
	ImageURL   *string
	CapturedAt string `gorm:"not null;index"`
	CreatedAt  string `gorm:"not null"`
}

func (DetectionRow) TableName() string { return "detections" }

// CameraStatusRow stores the singleton camera record as one JSON document.
type CameraStatusRow struct {
	ID        int                                         `gorm:"primaryKey"`
	Payload   datatypes.JSONType[platewatch.CameraStatus] `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (CameraStatusRow) TableName() string { return "camera_status" }

// PostgresStore implements Store on top of gorm. Ids come from the
// detections sequence, so concurrent writers never share an id.
type PostgresStore struct {
	db   *gorm.DB
	opts options
	log  zerolog.Logger
}

// NewPostgresStore expects a migrated database (see internal/db) and seeds it
// when both tables are empty.
func NewPostgresStore(ctx context.Context, db *gorm.DB, log zerolog.Logger, opts ...Option) (*PostgresStore, error) {
	s := &PostgresStore{db: db, opts: buildOptions(opts), log: log}

	var count int64
	if err := db.WithContext(ctx).Model(&DetectionRow{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count detections: %w", err)
	}
	var cameraRows int64
	if err := db.WithContext(ctx).Model(&CameraStatusRow{}).Count(&cameraRows).Error; err != nil {
		return nil, fmt.Errorf("count camera status: %w", err)
	}

	if count == 0 && cameraRows == 0 {
		if err := s.Write(ctx, SeedState(s.opts.now())); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
		s.log.Info().Msg("seeded postgres store")
	}
	return s, nil
}

func (s *PostgresStore) Read(ctx context.Context) (*platewatch.StoreState, error) {
	var rows []DetectionRow
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read detections: %w", err)
	}

	status, err := s.cameraStatus(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	state := &platewatch.StoreState{
		Detections:   make([]platewatch.Detection, 0, len(rows)),
		CameraStatus: status,
	}
	for _, r := range rows {
		state.Detections = append(state.Detections, r.toDomain())
		if r.ID > state.LastDetectionID {
			state.LastDetectionID = r.ID
		}
	}
	return state, nil
}

func (s *PostgresStore) Write(ctx context.Context, state *platewatch.StoreState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&DetectionRow{}).Error; err != nil {
			return fmt.Errorf("clear detections: %w", err)
		}

		if len(state.Detections) > 0 {
			rows := make([]DetectionRow, 0, len(state.Detections))
			for _, d := range state.Detections {
				rows = append(rows, detectionRowFromDomain(d))
			}
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("insert detections: %w", err)
			}
		}

		if state.LastDetectionID > 0 {
			if err := tx.Exec("SELECT setval(pg_get_serial_sequence('detections', 'id'), ?, true)", state.LastDetectionID).Error; err != nil {
				return fmt.Errorf("reset detection sequence: %w", err)
			}
		}

		return s.saveCameraStatus(tx, state.CameraStatus)
	})
}

func (s *PostgresStore) AddDetection(ctx context.Context, d platewatch.NewDetection) (platewatch.Detection, error) {
	row := detectionRowFromDomain(newDetectionRecord(0, d, s.opts.now()))
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return platewatch.Detection{}, fmt.Errorf("insert detection: %w", err)
	}
	return row.toDomain(), nil
}

func (s *PostgresStore) UpdateCameraStatus(ctx context.Context, u platewatch.CameraStatusUpdate) (platewatch.CameraStatus, error) {
	var merged platewatch.CameraStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := s.cameraStatus(tx.Clauses(clause.Locking{Strength: "UPDATE"}))
		if err != nil {
			return err
		}
		merged = mergeCameraStatus(cur, u, s.opts.now())
		return s.saveCameraStatus(tx, merged)
	})
	if err != nil {
		return platewatch.CameraStatus{}, err
	}
	return merged, nil
}

func (s *PostgresStore) cameraStatus(tx *gorm.DB) (platewatch.CameraStatus, error) {
	var row CameraStatusRow
	err := tx.Where("id = ?", platewatch.CameraStatusID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultCameraStatus(s.opts.now()), nil
	}
	if err != nil {
		return platewatch.CameraStatus{}, fmt.Errorf("read camera status: %w", err)
	}
	return row.Payload.Data(), nil
}

func (s *PostgresStore) saveCameraStatus(tx *gorm.DB, status platewatch.CameraStatus) error {
	status.ID = platewatch.CameraStatusID
	row := CameraStatusRow{
		ID:        platewatch.CameraStatusID,
		Payload:   datatypes.NewJSONType(status),
		UpdatedAt: s.opts.now(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save camera status: %w", err)
	}
	return nil
}

func detectionRowFromDomain(d platewatch.Detection) DetectionRow {
	return DetectionRow{
		ID:         d.ID,
		Plate:      d.Plate,
		Confidence: d.Confidence,
		Source:     d.Source,
		Direction:  string(d.Direction),
		ImageURL:   d.ImageURL,
		CapturedAt: d.CapturedAt,
		CreatedAt:  d.CreatedAt,
	}
}

func (r DetectionRow) toDomain() platewatch.Detection {
	return platewatch.Detection{
		ID:         r.ID,
		Plate:      r.Plate,
		Confidence: r.Confidence,
		Source:     r.Source,
		Direction:  platewatch.Direction(r.Direction),
		ImageURL:   r.ImageURL,
		CapturedAt: r.CapturedAt,
		CreatedAt:  r.CreatedAt,
	}
}
