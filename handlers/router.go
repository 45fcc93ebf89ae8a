package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/camden-git/wallpapersync/media"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// RouterDeps is everything the preview server reads from
type RouterDeps struct {
	Store          media.Store
	DB             *sql.DB // nil when the run journal is disabled
	WebSocket      http.HandlerFunc
	AllowedOrigins []string
}

// NewRouter mounts the published data, the feed archive, the run journal and
// the debug decoder
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	runsHandler := &RunsHandler{DB: deps.DB}
	debugHandler := &DebugHandler{Store: deps.Store}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Timeout(30*time.Second)).Route("/runs", func(r chi.Router) {
			r.Get("/", runsHandler.ListRuns)
			r.Get("/{run_id}", runsHandler.GetRun)
		})
		r.Get("/browse/data/*", DirectoryHandler(deps.Store, media.AssetTypeData))
		r.Get("/browse/feed/*", DirectoryHandler(deps.Store, media.AssetTypeFeed))
		if deps.WebSocket != nil {
			r.Get("/ws", deps.WebSocket)
		}
	})

	r.Route("/debug", func(r chi.Router) {
		r.Get("/decode", debugHandler.DecodeFile)
		r.Post("/decode", debugHandler.DecodeBlob)
	})

	r.Get("/data/*", AssetServer(deps.Store, media.AssetTypeData))
	r.Get("/feed/*", AssetServer(deps.Store, media.AssetTypeFeed))

	return r
}
