package activities

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stravasync/stravasync/internal/logging"
)

// Handler serves the sync trigger and the read-only views.
type Handler struct {
	syncer *Syncer
	views  *Views
	source Source
}

func NewHandler(syncer *Syncer, views *Views, source Source) *Handler {
	return &Handler{syncer: syncer, views: views, source: source}
}

// Sync runs one sync. Failures are reported as {"error": ...} with status 200.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	start := time.Now()
	result, err := h.syncer.Sync(r.Context(), limit)
	addServerTiming(w, "sync", time.Since(start))
	if err != nil {
		writeJSON(w, http.StatusOK, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListActivities returns stored activities, newest first.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rows, err := h.views.ListActivities(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("list activities")
		writeError(w, http.StatusInternalServerError, "Failed to fetch activities: "+err.Error())
		return
	}
	addServerTiming(w, "dbread", time.Since(start))
	writeJSON(w, http.StatusOK, rows)
}

// Latest projects the newest remote activity without reading the store.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := LatestActivity(r.Context(), h.source)
	if err != nil {
		logging.Warn().Err(err).Msg("latest activity")
		writeJSON(w, http.StatusOK, errorResponse{Error: err.Error()})
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusOK, messageResponse{Message: "No activities found."})
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// PersonalRecords lists every is_pr effort.
func (h *Handler) PersonalRecords(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rows, err := h.views.ListPersonalRecords(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("list personal records")
		writeError(w, http.StatusInternalServerError, "Failed to fetch personal records: "+err.Error())
		return
	}
	addServerTiming(w, "dbread", time.Since(start))
	writeJSON(w, http.StatusOK, rows)
}

// PersonalRecordsGeoJSON serves is_pr segment geometry as a FeatureCollection.
func (h *Handler) PersonalRecordsGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc, err := h.views.PersonalRecordsGeoJSON(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("personal records geojson")
		writeError(w, http.StatusInternalServerError, "Failed to build feature collection: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// PersonalRecordsTable serves the best time per segment.
func (h *Handler) PersonalRecordsTable(w http.ResponseWriter, r *http.Request) {
	rows, err := h.views.BestPerSegment(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("best per segment")
		writeError(w, http.StatusInternalServerError, "Failed to fetch segment table: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// SegmentProgress serves the full history for one segment.
func (h *Handler) SegmentProgress(w http.ResponseWriter, r *http.Request) {
	segmentID, err := strconv.ParseInt(chi.URLParam(r, "segment_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid segment id")
		return
	}

	progress, err := h.views.SegmentProgress(r.Context(), segmentID)
	if err != nil {
		logging.Error().Err(err).Int64("segment_id", segmentID).Msg("segment progress")
		writeError(w, http.StatusInternalServerError, "Failed to fetch segment history: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
