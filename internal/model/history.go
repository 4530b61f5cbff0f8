package model

// Source distinguishes who initiated a dispensing command.
type Source string

const (
	SourceManual   Source = "manual"
	SourceSchedule Source = "schedule"
)

// HistoryEntry is an immutable record of a dispensing event. Entries are
// appended in insertion order; newest-first ordering is applied at read
// time.
type HistoryEntry struct {
	Timestamp string `json:"timestamp"` // RFC 3339
	DeviceID  string `json:"device_id"`
	Amount    int    `json:"amount"`
	Unit      string `json:"unit"`
	Source    Source `json:"source"`
}
