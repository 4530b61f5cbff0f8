package model

// Command kinds understood by the feeder firmware.
const (
	CmdFeed  = "feed"
	CmdWater = "water"
)

// Command is the control payload published to feeder/{deviceID}/control.
type Command struct {
	Cmd    string `json:"cmd"`
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}
