package store

import (
	"math"
	"sync"
	"time"

	"github.com/u1kamal/petpulse-backend/internal/model"
)

// Store is the authoritative in-memory table of device state. Telemetry
// ingest, the command dispatcher, and the API all read and write through
// it; every operation is atomic with respect to the others, so a
// telemetry merge and a concurrent dispatch for the same device cannot
// lose an intermediate container-weight write.
type Store interface {
	// Get returns the state for a device, or the default unseen record.
	Get(deviceID string) model.DeviceState

	// ApplyTelemetry merges a device status report. Container weight is
	// deliberately left untouched.
	ApplyTelemetry(deviceID string, weight float64, status string, seenAt time.Time)

	// Deduct subtracts dispensed grams from the container estimate,
	// clamping at zero, and returns the resulting state.
	Deduct(deviceID string, grams float64) model.DeviceState

	// Refill forces the container estimate back to capacity without
	// touching any other field, and returns the resulting state.
	Refill(deviceID string) model.DeviceState
}

// memStore implements Store with a single mutex over the device table.
// Device cardinality is small, so per-device locking is not worth it.
type memStore struct {
	mu      sync.Mutex
	devices map[string]model.DeviceState
}

// NewMemStore creates an empty in-memory state store.
func NewMemStore() Store {
	return &memStore{devices: make(map[string]model.DeviceState)}
}

func (s *memStore) Get(deviceID string) model.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.devices[deviceID]
	if !ok {
		return model.NewDeviceState()
	}
	return st
}

func (s *memStore) ApplyTelemetry(deviceID string, weight float64, status string, seenAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.devices[deviceID]
	if !ok {
		st = model.NewDeviceState()
	}
	st.Online = true
	st.SensorWeight = weight
	st.Status = status
	st.LastSeen = seenAt.Format(time.RFC3339)
	s.devices[deviceID] = st
}

func (s *memStore) Deduct(deviceID string, grams float64) model.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.devices[deviceID]
	if !ok {
		st = model.NewDeviceState()
	}
	st.ContainerWeight = math.Max(0, st.ContainerWeight-grams)
	s.devices[deviceID] = st
	return st
}

func (s *memStore) Refill(deviceID string) model.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.devices[deviceID]
	if !ok {
		st = model.NewDeviceState()
		st.Status = "Idle"
	}
	st.ContainerWeight = model.DefaultContainerWeight
	s.devices[deviceID] = st
	return st
}
