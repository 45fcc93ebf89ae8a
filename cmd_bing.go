package main

import (
	"fmt"
	"strconv"

	"github.com/camden-git/wallpapersync/feed"
	"github.com/spf13/cobra"
)

var (
	bingCmd = &cobra.Command{
		Use:   "bing",
		Short: "Maintain the Bing daily wallpaper archive (metadata only)",
	}

	bingSyncCmd = &cobra.Command{
		Use:   "sync [days]",
		Short: "Fetch the most recent days from the feed and upsert them into the year files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBingSync,
	}

	bingImportCmd = &cobra.Command{
		Use:   "import <history.md>",
		Short: "Import a markdown history dump into the year files",
		Args:  cobra.ExactArgs(1),
		RunE:  runBingImport,
	}

	bingRebuildCmd = &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute index.json and latest.json from the year files",
		Args:  cobra.NoArgs,
		RunE:  runBingRebuild,
	}
)

func init() {
	bingCmd.AddCommand(bingSyncCmd, bingImportCmd, bingRebuildCmd)
}

func newFeedClient() *feed.Client {
	return feed.NewClient(cfg.BingAPIURL, cfg.BingMarket, cfg.BingHTTPTimeout, cfg.BingRequestDelay)
}

func runBingSync(cmd *cobra.Command, args []string) error {
	days := 1
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("days must be a positive integer, got '%s'", args[0])
		}
		days = n
	}

	pipeline, _, cleanup, err := newPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	printBanner("Bing daily sync (metadata only)")
	printInfo("fetching the most recent %d day(s)...", days)
	result, err := pipeline.SyncFeed(cmd.Context(), newFeedClient(), days)
	if err != nil {
		return err
	}
	printDone("fetched %d, added %d, updated %d", result.Fetched, result.Added, result.Updated)
	return nil
}

func runBingImport(cmd *cobra.Command, args []string) error {
	pipeline, _, cleanup, err := newPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	printBanner("Bing history import")
	result, err := pipeline.ImportFeedHistory(cmd.Context(), newFeedClient(), args[0])
	if err != nil {
		return err
	}
	printDone("imported %d entries across %d year file(s), %d upgraded from the feed", result.Parsed, result.Years, result.Upgraded)
	return nil
}

func runBingRebuild(cmd *cobra.Command, args []string) error {
	pipeline, _, cleanup, err := newPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	archive := pipeline.NewArchive(nil)
	if err := archive.Rebuild(); err != nil {
		return err
	}
	printDone("rebuilt index.json and latest.json")
	return nil
}
