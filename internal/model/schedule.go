package model

// Schedule is a persisted autonomous feeding rule. While the process is
// running, one Schedule maps to exactly one live daily trigger.
type Schedule struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	Time     string `json:"time"` // "HH:MM", 24h local wall clock
	Amount   int    `json:"amount"`
	Unit     string `json:"unit"`
}
