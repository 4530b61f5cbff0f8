package model

// DefaultContainerWeight is the reservoir capacity assumed for a freshly
// seen or refilled container, in grams.
const DefaultContainerWeight = 500

// LastSeenNever marks a device that has not reported telemetry yet.
const LastSeenNever = "never"

// DeviceState is the coordinator's view of a single feeder.
//
// ContainerWeight is the engine's estimate of the remaining food in the
// reservoir. It is never overwritten by telemetry — the scale under the
// tray reads dispensed food, not the reservoir — only by dispatch
// accounting or an explicit refill.
type DeviceState struct {
	Online          bool    `json:"online"`
	SensorWeight    float64 `json:"weight"`
	ContainerWeight float64 `json:"container_weight"`
	Status          string  `json:"status"`
	LastSeen        string  `json:"last_seen"`
}

// NewDeviceState returns the default record reported for an unseen device.
func NewDeviceState() DeviceState {
	return DeviceState{
		ContainerWeight: DefaultContainerWeight,
		Status:          "offline",
		LastSeen:        LastSeenNever,
	}
}

// TelemetryPayload is the status document a device publishes periodically
// on its feeder/{deviceID}/status topic.
type TelemetryPayload struct {
	Status string  `json:"status"`
	Weight float64 `json:"weight"`
}
