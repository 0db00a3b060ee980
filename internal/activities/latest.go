package activities

import (
	"context"
	"fmt"
	"math"
)

// LatestView is the newest remote activity, read straight from the source.
type LatestView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	DistanceKm    float64 `json:"distance_km"`
	MovingTimeMin float64 `json:"moving_time_min"`
	StartDate     string  `json:"start_date"`
}

// LatestActivity asks the source for its single newest activity without
// touching the store. It returns nil when the athlete has no activities.
func LatestActivity(ctx context.Context, source Source) (*LatestView, error) {
	summaries, err := source.ListActivities(ctx, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("list latest activity: %w", err)
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	a := summaries[0]
	return &LatestView{
		ID:            a.ID,
		Name:          a.Name,
		Type:          a.Type,
		DistanceKm:    metersToKm(a.Distance),
		MovingTimeMin: math.Round(float64(a.MovingTime)/60*10) / 10,
		StartDate:     a.StartDate,
	}, nil
}
