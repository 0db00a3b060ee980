package activities

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the sync trigger and the views. syncAuth, when non-nil,
// guards only the sync trigger.
func SetupRoutes(h *Handler, syncAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	// Public routes - read-only views over the store
	r.Get("/activities", h.ListActivities)
	r.Get("/latest", h.Latest)
	r.Get("/prs", h.PersonalRecords)
	r.Get("/prs_geojson", h.PersonalRecordsGeoJSON)
	r.Get("/prs_table", h.PersonalRecordsTable)
	r.Get("/segment/{segment_id}/progress", h.SegmentProgress)

	r.Group(func(r chi.Router) {
		if syncAuth != nil {
			r.Use(syncAuth)
		}
		r.Get("/sync", h.Sync)
		r.Post("/sync", h.Sync)
	})

	return r
}
