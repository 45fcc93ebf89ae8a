package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/camden-git/wallpapersync/services"
	"github.com/fatih/color"
)

var (
	infoColor  = color.New(color.FgBlue)
	doneColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	heading    = color.New(color.FgCyan, color.Bold)
)

var out io.Writer = os.Stdout

func printBanner(title string) {
	rule := strings.Repeat("=", 40)
	fmt.Fprintln(out, rule)
	heading.Fprintf(out, "  %s\n", title)
	fmt.Fprintln(out, rule)
}

func printInfo(format string, args ...any) {
	fmt.Fprintf(out, "%s %s\n", infoColor.Sprint("[INFO]"), fmt.Sprintf(format, args...))
}

func printDone(format string, args ...any) {
	fmt.Fprintf(out, "%s %s\n", doneColor.Sprint("[DONE]"), fmt.Sprintf(format, args...))
}

func printWarn(format string, args ...any) {
	fmt.Fprintf(out, "%s %s\n", warnColor.Sprint("[WARN]"), fmt.Sprintf(format, args...))
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorColor.Sprint("[ERROR]"), err)
}

func printRunReport(report *services.RunReport) {
	if report == nil {
		return
	}
	for _, batch := range report.Batches {
		if batch.Err != nil {
			printWarn("%s: %v (left in place)", batch.Name, batch.Err)
			continue
		}
		printInfo("%s: %d/%d entries applied", batch.Name, batch.Processed, batch.Entries)
	}
	printInfo("processed %d images (%d from batches, %d from ledger)", report.Processed, report.FromBatches, report.FromLedger)

	if !report.Published {
		printInfo("nothing new, publish skipped (use --force to regenerate)")
		return
	}
	for _, s := range report.Series {
		printInfo("%s: %d images in %d categories", s.Series, s.Count, len(s.Categories))
	}
	printDone("published with tag %s in %.2fs", report.Tag, report.DurationSeconds)
}
