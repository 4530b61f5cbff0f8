// Package telemetry merges device status messages into the state store.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/store"
)

// StatusTopicFilter matches every device's status topic.
const StatusTopicFilter = "feeder/+/status"

// completedStatus is the device-reported marker for a finished feed cycle.
const completedStatus = "Feeding completed"

// Notifier receives human-readable completion events. Delivery is
// fire-and-forget; a failed notification never propagates into the
// ingest path.
type Notifier interface {
	Notify(title, body string)
}

// Service is the telemetry ingest. It is driven by the transport's
// receive loop and must never crash it: malformed input is dropped.
type Service struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates the ingest service.
func NewService(s store.Store, n Notifier) *Service {
	return &Service{store: s, notifier: n, now: time.Now}
}

// HandleMessage processes one raw status message. Topics without a
// device segment are silently dropped; unparsable payloads are logged
// and dropped.
//
// Container weight is never touched here. The scale reads the tray, not
// the reservoir, and dispensed-amount accounting happens at command time
// so a noisy reading cannot double-count a feed.
func (s *Service) HandleMessage(topic string, payload []byte) {
	deviceID, ok := DeviceIDFromTopic(topic)
	if !ok {
		return
	}

	var p model.TelemetryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("telemetry: dropping malformed payload on %s: %v", topic, err)
		return
	}

	s.store.ApplyTelemetry(deviceID, p.Weight, p.Status, s.now())

	if p.Status == completedStatus {
		log.Printf("device %s confirmed feeding completion", deviceID)
		s.notifier.Notify("Feeding Complete", fmt.Sprintf("Feeder %s finished its cycle.", deviceID))
	}
}

// DeviceIDFromTopic extracts the device identifier from a
// feeder/{deviceID}/status topic.
func DeviceIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return "", false
	}
	return parts[1], true
}
