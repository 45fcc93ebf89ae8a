package main

import (
	"context"

	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/services"
	"github.com/camden-git/wallpapersync/workers"
	"github.com/spf13/cobra"
)

var (
	runTag   string
	runForce bool
	runWatch bool

	processCmd = &cobra.Command{
		Use:   "process",
		Short: "Merge pending annotation batches and the ledger, then publish when anything changed",
		Args:  cobra.NoArgs,
		RunE:  runProcess,
	}

	publishCmd = &cobra.Command{
		Use:   "publish",
		Short: "Regenerate the public data set from the stored metadata only",
		Args:  cobra.NoArgs,
		RunE:  runPublish,
	}
)

func init() {
	processCmd.Flags().StringVar(&runTag, "tag", "", "run tag (overrides CDN_TAG and TAG_FILE)")
	processCmd.Flags().BoolVar(&runForce, "force", false, "publish even when nothing was processed")
	processCmd.Flags().BoolVar(&runWatch, "watch", false, "keep running and process new batches as they arrive")
	publishCmd.Flags().StringVar(&runTag, "tag", "", "run tag (overrides CDN_TAG and TAG_FILE)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	pipeline, _, cleanup, err := newPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	tag := runTag
	if tag == "" {
		tag = cfg.CDNTag
	}

	printBanner("Metadata reconcile")
	report, err := pipeline.Run(cmd.Context(), services.RunOptions{Tag: tag, Force: runForce})
	printRunReport(report)
	if err != nil || !runWatch {
		return err
	}

	ctx := cmd.Context()
	watcher, err := startPendingWatcher(ctx, pipeline, tag)
	if err != nil {
		return err
	}
	printInfo("watching %s, press Ctrl+C to stop", watcher.Dir)
	<-ctx.Done()
	watcher.Stop()
	printDone("watcher stopped")
	return nil
}

// startPendingWatcher re-runs the pipeline whenever new batches land. the tag
// is resolved per run so an updated TAG_FILE is picked up.
func startPendingWatcher(ctx context.Context, pipeline *services.Pipeline, tag string) (*workers.PendingWatcher, error) {
	pendingDir, err := pipeline.Store.GetFullPath(media.AssetTypePending, "")
	if err != nil {
		return nil, err
	}
	watcher, err := workers.NewPendingWatcher(pendingDir, cfg.WatchDebounce, func(ctx context.Context) error {
		report, err := pipeline.Run(ctx, services.RunOptions{Tag: tag})
		printRunReport(report)
		return err
	})
	if err != nil {
		return nil, err
	}
	watcher.Start(ctx)
	return watcher, nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	pipeline, _, cleanup, err := newPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	tag := runTag
	if tag == "" {
		tag = cfg.CDNTag
	}

	printBanner("Publish")
	report, err := pipeline.Publish(cmd.Context(), tag)
	printRunReport(report)
	return err
}
