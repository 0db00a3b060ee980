package activities

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stravasync/stravasync/internal/logging"
	"github.com/stravasync/stravasync/internal/observability"
	"github.com/stravasync/stravasync/internal/strava"
)

const (
	DefaultSyncLimit   = 100
	DefaultDetailDelay = 1500 * time.Millisecond
)

// Source is the subset of the Strava client the sync engine needs.
type Source interface {
	ListActivities(ctx context.Context, perPage, page int) ([]strava.SummaryActivity, error)
	GetActivity(ctx context.Context, id int64) (*strava.DetailedActivity, error)
}

// SyncResult counts the rows inserted by one sync call.
type SyncResult struct {
	InsertedActivities int `json:"inserted_activities"`
	InsertedSegments   int `json:"inserted_segments"`
}

type SyncOptions struct {
	// DefaultLimit applies when Sync is called with limit <= 0.
	DefaultLimit int
	// DetailDelay is the pause between consecutive activity detail fetches.
	// Zero disables it.
	DetailDelay time.Duration
}

// Syncer pulls the newest page of activities and stores the ones not seen
// before together with their segment efforts. Only one Sync runs at a time.
type Syncer struct {
	source Source
	store  *Store
	opts   SyncOptions

	mu sync.Mutex
}

func NewSyncer(source Source, store *Store, opts SyncOptions) *Syncer {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultSyncLimit
	}
	if opts.DetailDelay < 0 {
		opts.DetailDelay = 0
	}
	return &Syncer{source: source, store: store, opts: opts}
}

// NormalizeLimit maps a requested limit onto the single page the source serves.
func NormalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit <= 0 {
		limit = DefaultSyncLimit
	}
	if limit > strava.PageMax {
		limit = strava.PageMax
	}
	return limit
}

// Sync fetches page 1 of the athlete's activities (up to limit), skips ids
// already stored, fetches detail for the rest and writes everything in one
// transaction. Any error aborts the call and nothing is written.
func (s *Syncer) Sync(ctx context.Context, limit int) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.run(ctx, NormalizeLimit(limit, s.opts.DefaultLimit))
	observability.RecordSync(result.InsertedActivities, result.InsertedSegments, time.Since(start), err)
	if err != nil {
		return SyncResult{}, err
	}
	return result, nil
}

func (s *Syncer) run(ctx context.Context, limit int) (SyncResult, error) {
	log := logging.With().Str("run_id", uuid.NewString()).Str("job", "sync").Logger()

	summaries, err := s.source.ListActivities(ctx, limit, 1)
	if err != nil {
		log.Error().Err(err).Msg("list activities failed")
		return SyncResult{}, fmt.Errorf("list activities: %w", err)
	}
	log.Info().Int("limit", limit).Int("fetched", len(summaries)).Msg("fetched activities")

	ids := make([]int64, 0, len(summaries))
	for _, a := range summaries {
		ids = append(ids, a.ID)
	}
	existing, err := s.store.ExistingActivityIDs(ctx, ids)
	if err != nil {
		return SyncResult{}, err
	}

	var (
		newActs    []Activity
		newEfforts []SegmentEffort
	)
	for _, summary := range summaries {
		if _, seen := existing[summary.ID]; seen {
			continue
		}
		existing[summary.ID] = struct{}{}

		act, err := activityFromSummary(summary)
		if err != nil {
			return SyncResult{}, err
		}

		// The full delay runs from the end of the previous detail fetch.
		if len(newActs) > 0 {
			if err := pause(ctx, s.opts.DetailDelay); err != nil {
				return SyncResult{}, fmt.Errorf("wait before activity %d detail: %w", summary.ID, err)
			}
		}
		detail, err := s.source.GetActivity(ctx, summary.ID)
		if err != nil {
			log.Error().Err(err).Int64("activity_id", summary.ID).Msg("activity detail failed")
			return SyncResult{}, fmt.Errorf("get activity %d: %w", summary.ID, err)
		}

		for _, e := range detail.SegmentEfforts {
			effort, err := effortFromDetail(act.ID, e)
			if err != nil {
				return SyncResult{}, err
			}
			newEfforts = append(newEfforts, effort)
		}
		newActs = append(newActs, act)
	}

	if err := s.store.SaveBatch(ctx, newActs, newEfforts); err != nil {
		log.Error().Err(err).Msg("persist sync batch failed")
		return SyncResult{}, err
	}

	result := SyncResult{InsertedActivities: len(newActs), InsertedSegments: len(newEfforts)}
	log.Info().
		Int("inserted_activities", result.InsertedActivities).
		Int("inserted_segments", result.InsertedSegments).
		Int("skipped", len(summaries)-len(newActs)).
		Msg("sync complete")
	return result, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func activityFromSummary(a strava.SummaryActivity) (Activity, error) {
	startDate, err := parseStartDate(a.StartDate)
	if err != nil {
		return Activity{}, fmt.Errorf("activity %d: %w", a.ID, err)
	}

	act := Activity{
		ID:                 a.ID,
		Name:               a.Name,
		Type:               a.Type,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		StartDate:          startDate,
		AverageSpeed:       a.AverageSpeed,
		MaxSpeed:           a.MaxSpeed,
		AverageHeartrate:   a.AverageHeartrate,
	}
	if a.Map.SummaryPolyline != "" {
		p := a.Map.SummaryPolyline
		act.Polyline = &p
	}
	return act, nil
}

func effortFromDetail(activityID int64, e strava.SegmentEffort) (SegmentEffort, error) {
	startDate, err := parseStartDate(e.StartDate)
	if err != nil {
		return SegmentEffort{}, fmt.Errorf("segment effort %d: %w", e.ID, err)
	}
	return SegmentEffort{
		EffortID:     e.ID,
		ActivityID:   activityID,
		SegmentID:    e.Segment.ID,
		SegmentName:  e.Segment.Name,
		Distance:     e.Segment.Distance,
		AverageGrade: e.Segment.AverageGrade,
		ElapsedTime:  e.ElapsedTime,
		StartDate:    startDate,
		PRRank:       e.PRRank,
		IsPR:         isPersonalRecord(e.PRRank),
	}, nil
}

// parseStartDate parses an ISO-8601 timestamp ("2024-05-01T07:00:00Z") into UTC.
func parseStartDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start_date %q: %w", s, err)
	}
	return t.UTC(), nil
}
