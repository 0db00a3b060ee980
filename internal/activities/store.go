package activities

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence layer for activities and segment efforts. Every
// method scopes its own session to ctx.
type Store struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

// ExistingActivityIDs returns the subset of ids already stored.
func (s *Store) ExistingActivityIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	found := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var existing []int64
	if err := s.db.WithContext(ctx).Model(&Activity{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, fmt.Errorf("query existing activities: %w", err)
	}
	for _, id := range existing {
		found[id] = struct{}{}
	}
	return found, nil
}

// SaveBatch inserts all activities and efforts in one transaction. Any
// conflict on activities.id or segment_efforts.effort_id rolls back the batch.
func (s *Store) SaveBatch(ctx context.Context, acts []Activity, efforts []SegmentEffort) error {
	if len(acts) == 0 && len(efforts) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(acts) > 0 {
			if err := tx.Omit(clause.Associations).Create(&acts).Error; err != nil {
				return fmt.Errorf("insert activities: %w", err)
			}
		}
		if len(efforts) > 0 {
			if err := tx.Omit(clause.Associations).Create(&efforts).Error; err != nil {
				return fmt.Errorf("insert segment efforts: %w", err)
			}
		}
		return nil
	})
}

// ListActivities returns every activity, newest first.
func (s *Store) ListActivities(ctx context.Context) ([]Activity, error) {
	var out []Activity
	err := s.db.WithContext(ctx).Order("start_date DESC").Order("id DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

// PersonalRecords returns every is_pr effort in insertion order.
func (s *Store) PersonalRecords(ctx context.Context) ([]SegmentEffort, error) {
	var out []SegmentEffort
	err := s.db.WithContext(ctx).Where("is_pr = ?", true).Order("id").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list personal records: %w", err)
	}
	return out, nil
}

// PersonalRecordsWithGeometry returns is_pr efforts whose segment polyline is present.
func (s *Store) PersonalRecordsWithGeometry(ctx context.Context) ([]SegmentEffort, error) {
	var out []SegmentEffort
	err := s.db.WithContext(ctx).
		Where("is_pr = ? AND segment_polyline IS NOT NULL", true).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list personal records with geometry: %w", err)
	}
	return out, nil
}

// SegmentEfforts returns all efforts on one segment, oldest first.
func (s *Store) SegmentEfforts(ctx context.Context, segmentID int64) ([]SegmentEffort, error) {
	var out []SegmentEffort
	err := s.db.WithContext(ctx).
		Where("segment_id = ?", segmentID).
		Order("start_date ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list efforts for segment %d: %w", segmentID, err)
	}
	return out, nil
}

// PRsMissingPolyline returns is_pr efforts that still have no segment polyline.
func (s *Store) PRsMissingPolyline(ctx context.Context) ([]SegmentEffort, error) {
	var out []SegmentEffort
	err := s.db.WithContext(ctx).
		Where("is_pr = ? AND segment_polyline IS NULL", true).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list personal records missing polyline: %w", err)
	}
	return out, nil
}

// SetSegmentPolyline stores geometry on one effort row. Rows that already
// carry a polyline are left untouched.
func (s *Store) SetSegmentPolyline(ctx context.Context, effortRowID uint, polyline string) error {
	res := s.db.WithContext(ctx).
		Model(&SegmentEffort{}).
		Where("id = ? AND segment_polyline IS NULL", effortRowID).
		Update("segment_polyline", polyline)
	if res.Error != nil {
		return fmt.Errorf("set segment polyline on effort %d: %w", effortRowID, res.Error)
	}
	return nil
}

// DeleteActivity removes one activity; its efforts go with it through the
// foreign-key cascade. It reports whether a row was deleted.
func (s *Store) DeleteActivity(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Activity{})
	if res.Error != nil {
		return false, fmt.Errorf("delete activity %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
