package activities

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stravasync/stravasync/internal/db"
	"github.com/stravasync/stravasync/internal/strava"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, Migrate(conn))
	return conn
}

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	return NewStore(conn), conn
}

// fakeSource serves canned Strava payloads and records what was asked for.
type fakeSource struct {
	mu sync.Mutex

	summaries []strava.SummaryActivity
	details   map[int64]*strava.DetailedActivity
	listErr   error
	detailErr map[int64]error

	// detailLatency delays every detail response.
	detailLatency time.Duration

	listCalls    int
	lastPerPage  int
	lastPage     int
	detailCalls  []int64
	detailStarts []time.Time
	detailEnds   []time.Time
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		details:   make(map[int64]*strava.DetailedActivity),
		detailErr: make(map[int64]error),
	}
}

// add registers an activity (newest first when added in order) with its efforts.
func (f *fakeSource) add(id int64, startDate string, efforts ...strava.SegmentEffort) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := strava.SummaryActivity{
		ID:          id,
		Name:        "Activity",
		Type:        "Run",
		Distance:    5234.567,
		MovingTime:  1530,
		ElapsedTime: 1600,
		StartDate:   startDate,
		Map:         strava.PolylineMap{SummaryPolyline: "_p~iF~ps|U"},
	}
	f.summaries = append(f.summaries, s)
	f.details[id] = &strava.DetailedActivity{SummaryActivity: s, SegmentEfforts: efforts}
}

func (f *fakeSource) ListActivities(ctx context.Context, perPage, page int) ([]strava.SummaryActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastPerPage = perPage
	f.lastPage = page
	if f.listErr != nil {
		return nil, f.listErr
	}
	n := len(f.summaries)
	if perPage < n {
		n = perPage
	}
	out := make([]strava.SummaryActivity, n)
	copy(out, f.summaries[:n])
	return out, nil
}

func (f *fakeSource) GetActivity(ctx context.Context, id int64) (*strava.DetailedActivity, error) {
	started := time.Now()
	if f.detailLatency > 0 {
		time.Sleep(f.detailLatency)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailStarts = append(f.detailStarts, started)
	f.detailEnds = append(f.detailEnds, time.Now())
	f.detailCalls = append(f.detailCalls, id)
	if err := f.detailErr[id]; err != nil {
		return nil, err
	}
	d, ok := f.details[id]
	if !ok {
		return nil, &strava.APIError{StatusCode: 404, Message: "Record Not Found"}
	}
	return d, nil
}

func (f *fakeSource) detailCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailCalls)
}

func rank(n int) *int { return &n }

func effort(id, segmentID int64, name string, prRank *int, elapsed int, startDate string) strava.SegmentEffort {
	return strava.SegmentEffort{
		ID:          id,
		ElapsedTime: elapsed,
		StartDate:   startDate,
		PRRank:      prRank,
		Segment: strava.SummarySegment{
			ID:           segmentID,
			Name:         name,
			Distance:     812.3,
			AverageGrade: 4.5,
		},
	}
}

func strPtr(s string) *string { return &s }

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

// seedActivity writes one activity with the given efforts directly through the store.
func seedActivity(t *testing.T, store *Store, id int64, start time.Time, efforts ...SegmentEffort) {
	t.Helper()
	for i := range efforts {
		efforts[i].ActivityID = id
	}
	act := Activity{ID: id, Name: "Seeded", Type: "Run", Distance: 10000, StartDate: start}
	require.NoError(t, store.SaveBatch(context.Background(), []Activity{act}, efforts))
}
