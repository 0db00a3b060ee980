// Package app wires configuration, storage and the Strava client into the
// services shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/stravasync/stravasync/internal/activities"
	"github.com/stravasync/stravasync/internal/backfill"
	"github.com/stravasync/stravasync/internal/config"
	"github.com/stravasync/stravasync/internal/db"
	"github.com/stravasync/stravasync/internal/logging"
	"github.com/stravasync/stravasync/internal/middleware"
	"github.com/stravasync/stravasync/internal/strava"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
	Strava *strava.Client
	Store  *activities.Store
	Syncer *activities.Syncer
	Views  *activities.Views
}

// New loads configuration, opens and migrates the database and builds the
// services. Callers must Close the returned App.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	conn, err := db.Open(db.Options{DatabaseURL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath})
	if err != nil {
		return nil, err
	}
	if err := activities.Migrate(conn); err != nil {
		_ = db.Close(conn)
		return nil, err
	}

	client := strava.NewClient(ctx, strava.Config{
		BaseURL:           cfg.Strava.BaseURL,
		TokenURL:          cfg.Strava.TokenURL,
		ClientID:          cfg.Strava.ClientID,
		ClientSecret:      cfg.Strava.ClientSecret,
		RefreshToken:      cfg.Strava.RefreshToken,
		Timeout:           cfg.Strava.Timeout,
		RequestsPerWindow: cfg.Strava.RequestsPer15Min,
	})

	store := activities.NewStore(conn)
	return &App{
		Config: cfg,
		DB:     conn,
		Strava: client,
		Store:  store,
		Syncer: activities.NewSyncer(client, store, activities.SyncOptions{
			DefaultLimit: cfg.Sync.DefaultLimit,
			DetailDelay:  cfg.Sync.DetailDelay,
		}),
		Views: activities.NewViews(store),
	}, nil
}

// Backfiller builds a polyline backfill run over this App's store.
func (a *App) Backfiller(dryRun bool) *backfill.Backfiller {
	return backfill.New(a.Strava, a.Store, backfill.Options{
		RateLimitBackoff:    a.Config.Backfill.RateLimitBackoff,
		MaxRateLimitRetries: a.Config.Backfill.MaxRateLimitRetries,
		DryRun:              dryRun,
	})
}

func (a *App) Close() error {
	return db.Close(a.DB)
}

// Router assembles the HTTP surface.
func (a *App) Router() http.Handler {
	return NewRouter(activities.NewHandler(a.Syncer, a.Views, a.Strava), a.Config.AllowedOrigins, a.Config.SyncAPIToken)
}

// NewRouter mounts the activity routes behind the shared middleware stack.
func NewRouter(h *activities.Handler, origins []string, syncToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(origins))

	r.Get("/", RootHandler)
	r.Get("/healthz", HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/", activities.SetupRoutes(h, middleware.BearerToken(syncToken)))
	return r
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}

// NewServer applies timeouts generous enough for a full sync page with
// courtesy delays between detail fetches.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
}
