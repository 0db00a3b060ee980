package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stravasync",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Sync runs, labeled by outcome (ok or error).",
	}, []string{"outcome"})

	activitiesSynced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stravasync",
		Subsystem: "sync",
		Name:      "activities_inserted_total",
		Help:      "Activities inserted by sync runs.",
	})

	effortsSynced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stravasync",
		Subsystem: "sync",
		Name:      "segment_efforts_inserted_total",
		Help:      "Segment efforts inserted by sync runs.",
	})

	syncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stravasync",
		Subsystem: "sync",
		Name:      "run_duration_seconds",
		Help:      "Wall time of a sync run including courtesy delays.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stravasync",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful sync.",
	})

	backfillRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stravasync",
		Subsystem: "backfill",
		Name:      "rows_total",
		Help:      "Backfill rows processed, labeled by result (filled, empty, failed).",
	}, []string{"result"})

	apiRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stravasync",
		Subsystem: "strava",
		Name:      "requests_total",
		Help:      "Requests made to the Strava API, labeled by endpoint and HTTP status.",
	}, []string{"endpoint", "status"})
)

func init() {
	prometheus.MustRegister(syncRuns, activitiesSynced, effortsSynced, syncDuration, lastSyncGauge, backfillRows, apiRequests)
}

// RecordSync records the outcome of one sync run.
func RecordSync(activities, efforts int, elapsed time.Duration, err error) {
	syncDuration.Observe(elapsed.Seconds())
	if err != nil {
		syncRuns.WithLabelValues("error").Inc()
		return
	}
	syncRuns.WithLabelValues("ok").Inc()
	activitiesSynced.Add(float64(activities))
	effortsSynced.Add(float64(efforts))
	lastSyncGauge.Set(float64(time.Now().Unix()))
}

// RecordBackfillRow counts one processed backfill row. result is filled, empty or failed.
func RecordBackfillRow(result string) {
	backfillRows.WithLabelValues(result).Inc()
}

// RecordAPIRequest counts a Strava API call. A status of 0 means the request
// never produced a response.
func RecordAPIRequest(endpoint string, status int) {
	apiRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}
