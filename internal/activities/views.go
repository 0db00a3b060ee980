package activities

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/stravasync/stravasync/internal/geo"
	"github.com/stravasync/stravasync/internal/logging"
)

// ActivityView is one row of the activity listing.
type ActivityView struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	DistanceKm float64   `json:"distance_km"`
	StartDate  time.Time `json:"start_date"`
}

// PersonalRecordView is one is_pr effort. DistanceKm is null when the
// segment has no distance.
type PersonalRecordView struct {
	SegmentID    int64     `json:"segment_id"`
	SegmentName  string    `json:"segment_name"`
	DistanceKm   *float64  `json:"distance_km"`
	ElapsedTimeS int       `json:"elapsed_time_s"`
	ActivityID   int64     `json:"activity_id"`
	StartDate    time.Time `json:"start_date"`
}

// SegmentBest is one row of the best-per-segment table.
type SegmentBest struct {
	SegmentID       int64     `json:"segment_id"`
	SegmentName     string    `json:"segment_name"`
	BestTime        int       `json:"best_time"`
	LastDate        time.Time `json:"last_date"`
	SegmentPolyline string    `json:"segment_polyline"`
}

// ProgressPoint is one attempt in a segment's history.
type ProgressPoint struct {
	EffortID     int64     `json:"effort_id"`
	ActivityID   int64     `json:"activity_id"`
	ElapsedTimeS int       `json:"elapsed_time_s"`
	StartDate    time.Time `json:"start_date"`
	PRRank       *int      `json:"pr_rank"`
	IsPR         bool      `json:"is_pr"`
}

// SegmentProgress is the full history for one segment. Attempted is false,
// with an empty Efforts slice and a Message, when no effort was ever stored.
type SegmentProgress struct {
	SegmentID   int64           `json:"segment_id"`
	SegmentName string          `json:"segment_name,omitempty"`
	Attempted   bool            `json:"attempted"`
	Efforts     []ProgressPoint `json:"efforts"`
	Message     string          `json:"message,omitempty"`
}

const noEffortsMessage = "No efforts recorded for this segment."

// Views are the read-only projections over the store.
type Views struct {
	store *Store
}

func NewViews(store *Store) *Views {
	return &Views{store: store}
}

func (v *Views) ListActivities(ctx context.Context) ([]ActivityView, error) {
	acts, err := v.store.ListActivities(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityView, 0, len(acts))
	for _, a := range acts {
		out = append(out, ActivityView{
			ID:         a.ID,
			Name:       a.Name,
			Type:       a.Type,
			DistanceKm: metersToKm(a.Distance),
			StartDate:  a.StartDate.UTC(),
		})
	}
	return out, nil
}

func (v *Views) ListPersonalRecords(ctx context.Context) ([]PersonalRecordView, error) {
	prs, err := v.store.PersonalRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PersonalRecordView, 0, len(prs))
	for _, e := range prs {
		out = append(out, PersonalRecordView{
			SegmentID:    e.SegmentID,
			SegmentName:  e.SegmentName,
			DistanceKm:   optionalKm(e.Distance),
			ElapsedTimeS: e.ElapsedTime,
			ActivityID:   e.ActivityID,
			StartDate:    e.StartDate.UTC(),
		})
	}
	return out, nil
}

// PersonalRecordsGeoJSON projects is_pr efforts with geometry into a
// FeatureCollection of LineStrings. Rows whose polyline does not decode are
// left out.
func (v *Views) PersonalRecordsGeoJSON(ctx context.Context) (*geojson.FeatureCollection, error) {
	prs, err := v.store.PersonalRecordsWithGeometry(ctx)
	if err != nil {
		return nil, err
	}
	return personalRecordFeatures(prs), nil
}

func personalRecordFeatures(prs []SegmentEffort) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range prs {
		if e.SegmentPolyline == nil {
			continue
		}
		line, err := geo.LineString(*e.SegmentPolyline)
		if err != nil {
			logging.Debug().Err(err).Uint("effort_row", e.ID).Msg("skipping undecodable segment polyline")
			continue
		}

		f := geojson.NewFeature(line)
		f.Properties["segment_id"] = e.SegmentID
		f.Properties["segment_name"] = e.SegmentName
		if km := optionalKm(e.Distance); km != nil {
			f.Properties["distance_km"] = *km
		} else {
			f.Properties["distance_km"] = nil
		}
		f.Properties["avg_grade"] = e.AverageGrade
		f.Properties["elapsed_time_s"] = e.ElapsedTime
		f.Properties["start_date"] = e.StartDate.UTC().Format(time.RFC3339)
		fc.Append(f)
	}
	return fc
}

// BestPerSegment groups is_pr efforts with geometry by (segment id, segment
// name, polyline) and reports the fastest time and most recent date per group.
func (v *Views) BestPerSegment(ctx context.Context) ([]SegmentBest, error) {
	prs, err := v.store.PersonalRecordsWithGeometry(ctx)
	if err != nil {
		return nil, err
	}
	return bestPerSegment(prs), nil
}

type segmentKey struct {
	id       int64
	name     string
	polyline string
}

func bestPerSegment(efforts []SegmentEffort) []SegmentBest {
	groups := make(map[segmentKey]*SegmentBest)
	for _, e := range efforts {
		if e.SegmentPolyline == nil {
			continue
		}
		key := segmentKey{id: e.SegmentID, name: e.SegmentName, polyline: *e.SegmentPolyline}
		g, ok := groups[key]
		if !ok {
			groups[key] = &SegmentBest{
				SegmentID:       e.SegmentID,
				SegmentName:     e.SegmentName,
				BestTime:        e.ElapsedTime,
				LastDate:        e.StartDate.UTC(),
				SegmentPolyline: *e.SegmentPolyline,
			}
			continue
		}
		if e.ElapsedTime < g.BestTime {
			g.BestTime = e.ElapsedTime
		}
		if e.StartDate.After(g.LastDate) {
			g.LastDate = e.StartDate.UTC()
		}
	}

	out := make([]SegmentBest, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SegmentID != out[j].SegmentID {
			return out[i].SegmentID < out[j].SegmentID
		}
		if out[i].SegmentName != out[j].SegmentName {
			return out[i].SegmentName < out[j].SegmentName
		}
		return out[i].SegmentPolyline < out[j].SegmentPolyline
	})
	return out
}

// SegmentProgress returns every effort on a segment, oldest first.
func (v *Views) SegmentProgress(ctx context.Context, segmentID int64) (SegmentProgress, error) {
	efforts, err := v.store.SegmentEfforts(ctx, segmentID)
	if err != nil {
		return SegmentProgress{}, err
	}

	progress := SegmentProgress{SegmentID: segmentID, Efforts: []ProgressPoint{}}
	if len(efforts) == 0 {
		progress.Message = noEffortsMessage
		return progress, nil
	}

	progress.Attempted = true
	progress.SegmentName = efforts[len(efforts)-1].SegmentName
	for _, e := range efforts {
		progress.Efforts = append(progress.Efforts, ProgressPoint{
			EffortID:     e.EffortID,
			ActivityID:   e.ActivityID,
			ElapsedTimeS: e.ElapsedTime,
			StartDate:    e.StartDate.UTC(),
			PRRank:       e.PRRank,
			IsPR:         e.IsPR,
		})
	}
	return progress, nil
}

func metersToKm(m float64) float64 {
	return math.Round(m/1000*100) / 100
}

func optionalKm(m float64) *float64 {
	if m == 0 {
		return nil
	}
	km := metersToKm(m)
	return &km
}
