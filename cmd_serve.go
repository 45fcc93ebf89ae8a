package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/camden-git/wallpapersync/handlers"
	"github.com/camden-git/wallpapersync/realtime"
	"github.com/spf13/cobra"
)

var (
	serveWatch bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the published data set, the feed archive and the run journal for local preview",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "also process pending batches as they arrive")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, db, cleanup, err := newPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	hub := realtime.NewHub()
	go hub.Run(ctx)
	pipeline.Listener = hub.RunListener()

	if serveWatch {
		watcher, err := startPendingWatcher(ctx, pipeline, cfg.CDNTag)
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Store:          pipeline.Store,
		DB:             db,
		WebSocket:      hub.ServeWS,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("serve: Error during shutdown: %v", err)
		}
	}()

	printInfo("preview server on http://localhost:%s (data at /data/, feed at /feed/, runs at /api/runs/)", cfg.Port)
	log.Printf("Server listening on %s", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	printDone("server stopped")
	return nil
}
