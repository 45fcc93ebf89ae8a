package services

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/camden-git/wallpapersync/models"
)

// ParseLedger reads series|relativePath|unixSeconds|cdnTag lines. malformed
// lines are logged and skipped
func ParseLedger(r io.Reader) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			log.Printf("ledger: Warning - skipping line %d, expected 4 fields got %d", lineNo, len(parts))
			continue
		}

		ts, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil {
			log.Printf("ledger: Warning - skipping line %d, bad timestamp '%s'", lineNo, parts[2])
			continue
		}

		entries = append(entries, models.LedgerEntry{
			Series:       parts[0],
			RelativePath: parts[1],
			Timestamp:    ts,
			CDNTag:       strings.TrimSpace(parts[3]),
			Line:         lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("failed to read ledger: %w", err)
	}
	return entries, nil
}
