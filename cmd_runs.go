package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/camden-git/wallpapersync/database"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	runsLimit int

	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs from the journal",
		Args:  cobra.NoArgs,
		RunE:  runRuns,
	}
)

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db := openJournal()
	if db == nil {
		return errors.New("run journal is disabled (JOURNAL_PATH is empty) or unavailable")
	}
	defer db.Close()

	runs, err := database.ListRecentRuns(db, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("no runs recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tKIND\tTAG\tSTATUS\tPROCESSED\tID")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			time.Unix(run.StartedAt, 0).Format("2006-01-02 15:04:05"),
			run.Kind, run.CDNTag, statusText(run.Status), run.Processed, run.ID)
	}
	return tw.Flush()
}

func statusText(status string) string {
	switch status {
	case database.StatusDone:
		return color.GreenString(status)
	case database.StatusFailed:
		return color.RedString(status)
	case database.StatusRunning:
		return color.YellowString(status)
	default:
		return status
	}
}
