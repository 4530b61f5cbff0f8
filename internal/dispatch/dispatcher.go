// Package dispatch is the single mutation path for optimistic device
// state. Manual requests and scheduler triggers both go through it.
package dispatch

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/persist"
	"github.com/u1kamal/petpulse-backend/internal/store"
)

var (
	// ErrInvalidAmount rejects non-positive dispense amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrTransportUnavailable wraps a failed control publish.
	ErrTransportUnavailable = errors.New("transport unavailable")
)

// Publisher publishes a JSON payload to a transport topic.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// Dispatcher publishes control commands and applies the optimistic
// container accounting plus the history record.
type Dispatcher struct {
	store   store.Store
	history *persist.Document[model.HistoryEntry]
	pub     Publisher
	now     func() time.Time
}

// New creates a dispatcher.
func New(s store.Store, history *persist.Document[model.HistoryEntry], pub Publisher) *Dispatcher {
	return &Dispatcher{store: s, history: history, pub: pub, now: time.Now}
}

// ControlTopic returns the command topic for a device.
func ControlTopic(deviceID string) string {
	return fmt.Sprintf("feeder/%s/control", deviceID)
}

// Feed publishes a feed command, deducts the dispensed grams from the
// container estimate, and appends a history record.
//
// The publish happens first: if the broker rejects the command, no state
// or history is committed, so accounting cannot drift ahead of commands
// that never left the process.
func (d *Dispatcher) Feed(deviceID string, amount int, unit string, source model.Source) (model.Command, error) {
	return d.dispatch(deviceID, model.Command{Cmd: model.CmdFeed, Amount: amount, Unit: unit}, source)
}

// Water publishes a water command. The water line does not draw from the
// food reservoir, so neither the container estimate nor the feeding
// history is touched.
func (d *Dispatcher) Water(deviceID string, amount int, unit string, source model.Source) (model.Command, error) {
	return d.dispatch(deviceID, model.Command{Cmd: model.CmdWater, Amount: amount, Unit: unit}, source)
}

func (d *Dispatcher) dispatch(deviceID string, cmd model.Command, source model.Source) (model.Command, error) {
	if cmd.Amount <= 0 {
		return model.Command{}, ErrInvalidAmount
	}

	topic := ControlTopic(deviceID)
	if err := d.pub.PublishJSON(topic, cmd); err != nil {
		return model.Command{}, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	log.Printf("published %s command to %s: %d%s (%s)", cmd.Cmd, topic, cmd.Amount, cmd.Unit, source)

	if cmd.Cmd != model.CmdFeed {
		return cmd, nil
	}

	st := d.store.Deduct(deviceID, float64(cmd.Amount))
	log.Printf("container estimate for %s now %.0fg", deviceID, st.ContainerWeight)

	entry := model.HistoryEntry{
		Timestamp: d.now().Format(time.RFC3339),
		DeviceID:  deviceID,
		Amount:    cmd.Amount,
		Unit:      cmd.Unit,
		Source:    source,
	}
	if err := d.history.Update(func(entries []model.HistoryEntry) []model.HistoryEntry {
		return append(entries, entry)
	}); err != nil {
		// The command already reached the broker and the container
		// estimate is committed; surface the loss instead of hiding it.
		return cmd, fmt.Errorf("append history: %w", err)
	}
	return cmd, nil
}
