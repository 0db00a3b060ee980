package activities

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/stravasync/stravasync/internal/logging"
)

// Migrate creates or updates the activities and segment_efforts tables.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&Activity{}, &SegmentEffort{}); err != nil {
		return fmt.Errorf("auto-migrate activities tables: %w", err)
	}

	// Backfill candidates: is_pr rows still waiting for geometry.
	if err := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_segment_efforts_pr_missing_polyline
		ON segment_efforts (id) WHERE is_pr AND segment_polyline IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create idx_segment_efforts_pr_missing_polyline: %w", err)
	}

	logging.Info().Msg("activities module initialized")
	return nil
}
