package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/persist"
	"github.com/u1kamal/petpulse-backend/internal/store"
)

// Dispatcher is the command surface the handlers need.
type Dispatcher interface {
	Feed(deviceID string, amount int, unit string, source model.Source) (model.Command, error)
	Water(deviceID string, amount int, unit string, source model.Source) (model.Command, error)
}

// Scheduler is the schedule surface the handlers need.
type Scheduler interface {
	Add(deviceID, clock string, amount int, unit string) (model.Schedule, error)
	Remove(id string) (bool, error)
	List() ([]model.Schedule, error)
}

// ConnChecker reports transport connectivity for the health endpoint.
type ConnChecker interface {
	IsConnected() bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	dispatcher Dispatcher
	schedules  Scheduler
	history    *persist.Document[model.HistoryEntry]
	subs       *persist.Document[model.PushSubscription]
	webpush    *webpush.Options
	conn       ConnChecker
}

// NewHandler creates a new API handler.
func NewHandler(
	s store.Store,
	dispatcher Dispatcher,
	schedules Scheduler,
	history *persist.Document[model.HistoryEntry],
	subs *persist.Document[model.PushSubscription],
	webpushOptions *webpush.Options,
	conn ConnChecker,
) *Handler {
	return &Handler{
		store:      s,
		dispatcher: dispatcher,
		schedules:  schedules,
		history:    history,
		subs:       subs,
		webpush:    webpushOptions,
		conn:       conn,
	}
}
