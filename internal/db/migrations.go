package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS detections (
		id              BIGSERIAL PRIMARY KEY,
		plate           TEXT NOT NULL,
		confidence      DOUBLE PRECISION NOT NULL,
		source          TEXT NOT NULL,
		direction       TEXT NOT NULL CHECK (direction IN ('entry', 'exit')),
		image_url       TEXT,
		captured_at     TEXT NOT NULL,
		created_at      TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_detections_captured_at ON detections(captured_at);`,
	`CREATE INDEX IF NOT EXISTS idx_detections_plate ON detections(plate);`,
	`CREATE TABLE IF NOT EXISTS camera_status (
		id              INT PRIMARY KEY,
		payload         JSONB NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
