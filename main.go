package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/camden-git/wallpapersync/config"
	"github.com/camden-git/wallpapersync/database"
	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/services"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg config.Config

	rootOverride  string
	probeOverride string

	rootCmd = &cobra.Command{
		Use:           "wallpapersync",
		Short:         "Reconcile wallpaper metadata and publish the gallery data set",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Printf("Info: No .env file found or error loading: %v", err)
			}
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if rootOverride != "" {
				overridden, err := config.WithRoot(loaded, rootOverride)
				if err != nil {
					return err
				}
				loaded = overridden
			}
			if probeOverride != "" {
				loaded.ProbeMode = probeOverride
			}
			cfg = loaded
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOverride, "root", "", "image repository root (overrides ROOT_DIRECTORY)")
	rootCmd.PersistentFlags().StringVar(&probeOverride, "probe", "", "dimension probe: magick, native or none (overrides PROBE_MODE)")

	rootCmd.AddCommand(processCmd, publishCmd, bingCmd, serveCmd, runsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

// openJournal returns nil when the journal is disabled or cannot be opened;
// runs still proceed without it
func openJournal() *sql.DB {
	if cfg.JournalPath == "" {
		return nil
	}
	db, err := database.InitDB(cfg.JournalPath)
	if err != nil {
		log.Printf("Warning - run journal unavailable, continuing without it: %v", err)
		return nil
	}
	return db
}

// newPipeline wires the store, prober and journal from cfg. the returned
// cleanup closes the journal.
func newPipeline() (*services.Pipeline, *sql.DB, func(), error) {
	store, err := services.NewStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	prober, err := media.NewProber(cfg.ProbeMode)
	if err != nil {
		return nil, nil, nil, err
	}

	db := openJournal()
	var journal services.RunJournal
	if db != nil {
		journal = services.NewSQLJournal(db)
	}

	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}
	return services.NewPipeline(cfg, store, prober, journal), db, cleanup, nil
}
