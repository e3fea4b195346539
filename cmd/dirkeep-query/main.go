package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"dirkeep/internal/exitcodes"
	"dirkeep/internal/history"
)

func main() {
	dbPath := flag.String("db", "/var/lib/dirkeep/history.db", "Path to operation history database")
	recent := flag.Int("recent", 0, "Show N most recent events")
	stats := flag.Bool("stats", false, "Show activity statistics")
	action := flag.String("action", "", "Filter by action (REMOVED, SKIPPED, FAILED, DRY_RUN, CREATED)")
	pathPattern := flag.String("path", "", "Filter by path pattern (SQL LIKE syntax)")
	largest := flag.Int("largest", 0, "Show N largest removed entries")
	days := flag.Int("days", 30, "Number of days for statistics (default: 30)")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	flag.Parse()

	db, err := history.Open(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	switch {
	case *stats:
		showStats(db, *days, *jsonOutput)
	case *recent > 0:
		showRecent(db, *recent, *jsonOutput)
	case *action != "":
		showByAction(db, *action, *jsonOutput)
	case *pathPattern != "":
		showByPath(db, *pathPattern, *jsonOutput)
	case *largest > 0:
		showLargest(db, *largest, *jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  dirkeep-query --recent 10          # Show 10 most recent events")
		fmt.Println("  dirkeep-query --stats              # Show activity statistics")
		fmt.Println("  dirkeep-query --action FAILED      # Show entries that survived removal")
		fmt.Println("  dirkeep-query --path '/var/tmp/%'  # Show events under /var/tmp")
		fmt.Println("  dirkeep-query --largest 10         # Show 10 largest removed entries")
		os.Exit(exitcodes.InvalidConfig)
	}
}

func showStats(db *history.DB, days int, jsonOutput bool) {
	stats, err := db.GetStats(days)
	if err != nil {
		log.Fatalf("ERROR: Failed to get statistics: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Activity Statistics (Last %d days)\n", days)
	fmt.Printf("Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Printf("Entries Removed:  %d\n", stats.TotalRemoved)
	fmt.Printf("Entries Skipped:  %d\n", stats.TotalSkipped)
	fmt.Printf("Entries Failed:   %d\n", stats.TotalFailed)
	fmt.Printf("Archives Created: %d\n", stats.TotalArchives)
	fmt.Printf("Bytes Reclaimed:  %s\n\n", formatBytes(stats.BytesReclaimed))

	if len(stats.ByAction) > 0 {
		fmt.Println("By Action:")
		for action, count := range stats.ByAction {
			fmt.Printf("  %-15s %d\n", action, count)
		}
	}
}

func showRecent(db *history.DB, limit int, jsonOutput bool) {
	records, err := db.Recent(limit)
	if err != nil {
		log.Fatalf("ERROR: Failed to get recent events: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return
	}

	printRecords(records)
}

func showByAction(db *history.DB, action string, jsonOutput bool) {
	records, err := db.ByAction(action)
	if err != nil {
		log.Fatalf("ERROR: Failed to query by action: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Events with action: %s\n\n", action)
	printRecords(records)
}

func showByPath(db *history.DB, pathPattern string, jsonOutput bool) {
	records, err := db.ByPath(pathPattern)
	if err != nil {
		log.Fatalf("ERROR: Failed to query by path: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Events matching path pattern: %s\n\n", pathPattern)
	printRecords(records)
}

func showLargest(db *history.DB, limit int, jsonOutput bool) {
	records, err := db.Largest(limit)
	if err != nil {
		log.Fatalf("ERROR: Failed to get largest removals: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Largest %d removed entries:\n\n", limit)
	printRecords(records)
}

func printRecords(records []history.Record) {
	if len(records) == 0 {
		fmt.Println("No records found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTimestamp\tOp\tAction\tSize\tPath")
	_, _ = fmt.Fprintln(w, "--\t---------\t--\t------\t----\t----")

	for _, r := range records {
		timestamp := r.Timestamp.Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, timestamp, r.Op, r.Action, formatBytes(r.Size), r.Path)
	}
	_ = w.Flush()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
