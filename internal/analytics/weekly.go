// Package analytics aggregates feeding history for reporting.
package analytics

import (
	"time"

	"github.com/u1kamal/petpulse-backend/internal/model"
)

// Weekly sums dispensed amounts per weekday over the trailing seven
// days, today inclusive. Every weekday label in the window is present
// even when nothing was dispensed; entries with unparsable timestamps
// are skipped.
func Weekly(entries []model.HistoryEntry, today time.Time) map[string]int {
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	totals := make(map[string]int, 7)
	window := make(map[string]string, 7) // "2006-01-02" date -> weekday label
	for i := 6; i >= 0; i-- {
		day := todayDate.AddDate(0, 0, -i)
		label := day.Format("Mon")
		totals[label] = 0
		window[day.Format("2006-01-02")] = label
	}

	for _, entry := range entries {
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			continue
		}
		if label, ok := window[ts.In(today.Location()).Format("2006-01-02")]; ok {
			totals[label] += entry.Amount
		}
	}
	return totals
}
