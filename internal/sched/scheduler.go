// Package sched owns the mapping from persisted feeding schedules to
// live daily triggers.
package sched

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/u1kamal/petpulse-backend/internal/model"
	"github.com/u1kamal/petpulse-backend/internal/persist"
)

// ErrInvalidTime rejects schedule times that are not "HH:MM" (24h).
var ErrInvalidTime = errors.New("time must be HH:MM (24h)")

// Dispatcher is the slice of the command dispatcher a trigger needs.
type Dispatcher interface {
	Feed(deviceID string, amount int, unit string, source model.Source) (model.Command, error)
}

// Service registers, removes, lists, and restores feeding schedules.
// Triggers fire daily at local wall-clock time, the same timezone the
// "HH:MM" strings were created in.
type Service struct {
	scheduler  gocron.Scheduler
	schedules  *persist.Document[model.Schedule]
	dispatcher Dispatcher

	mu   sync.Mutex
	jobs map[string]uuid.UUID // schedule id -> live trigger handle
}

// NewService creates the schedule service. Call RestoreAll and then
// Start before serving requests.
func NewService(schedules *persist.Document[model.Schedule], d Dispatcher) (*Service, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Service{
		scheduler:  s,
		schedules:  schedules,
		dispatcher: d,
		jobs:       make(map[string]uuid.UUID),
	}, nil
}

// Start begins firing registered triggers.
func (s *Service) Start() {
	s.scheduler.Start()
}

// Stop shuts the trigger scheduler down. Running triggers finish.
func (s *Service) Stop() error {
	return s.scheduler.Shutdown()
}

// ParseClock validates an "HH:MM" wall-clock string.
func ParseClock(v string) (hour, minute int, err error) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidTime
	}
	hour, hourErr := strconv.Atoi(parts[0])
	minute, minuteErr := strconv.Atoi(parts[1])
	if hourErr != nil || minuteErr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidTime
	}
	return hour, minute, nil
}

// Add registers a daily trigger and persists the schedule. The schedule
// is persisted before the trigger is registered, so a registration that
// never becomes visible through List cannot exist; if registration fails
// the persisted entry is rolled back.
func (s *Service) Add(deviceID, clock string, amount int, unit string) (model.Schedule, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return model.Schedule{}, err
	}

	sc := model.Schedule{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		Time:     clock,
		Amount:   amount,
		Unit:     unit,
	}

	if err := s.schedules.Update(func(all []model.Schedule) []model.Schedule {
		return append(all, sc)
	}); err != nil {
		return model.Schedule{}, fmt.Errorf("persist schedule: %w", err)
	}

	if err := s.register(sc, hour, minute); err != nil {
		if rollbackErr := s.schedules.Update(func(all []model.Schedule) []model.Schedule {
			return withoutID(all, sc.ID)
		}); rollbackErr != nil {
			log.Printf("rolling back schedule %s: %v", sc.ID, rollbackErr)
		}
		return model.Schedule{}, err
	}

	log.Printf("added schedule %s: %s %d%s for %s", sc.ID, sc.Time, sc.Amount, sc.Unit, sc.DeviceID)
	return sc, nil
}

// Remove deregisters the live trigger and deletes the persisted
// schedule. Removing an unknown id is a no-op; the boolean reports
// whether a schedule was actually deleted.
func (s *Service) Remove(id string) (bool, error) {
	s.mu.Lock()
	jobID, live := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()

	if live {
		// A trigger missing from the scheduler is the same benign desync
		// as an id missing from the file.
		if err := s.scheduler.RemoveJob(jobID); err != nil {
			log.Printf("removing trigger for schedule %s: %v", id, err)
		}
	}

	removed := false
	err := s.schedules.Update(func(all []model.Schedule) []model.Schedule {
		kept := withoutID(all, id)
		removed = len(kept) != len(all)
		return kept
	})
	if err != nil {
		return false, fmt.Errorf("persist schedule removal: %w", err)
	}
	return removed, nil
}

// List returns all persisted schedules.
func (s *Service) List() ([]model.Schedule, error) {
	return s.schedules.Load()
}

// RestoreAll reads the persisted schedules and registers a live trigger
// for each, without re-persisting. Invoked once at startup.
func (s *Service) RestoreAll() error {
	all, err := s.schedules.Load()
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}

	for _, sc := range all {
		hour, minute, err := ParseClock(sc.Time)
		if err != nil {
			log.Printf("skipping schedule %s with unparsable time %q", sc.ID, sc.Time)
			continue
		}
		if err := s.register(sc, hour, minute); err != nil {
			return err
		}
		log.Printf("restored schedule %s: %s %d%s for %s", sc.ID, sc.Time, sc.Amount, sc.Unit, sc.DeviceID)
	}
	return nil
}

func (s *Service) register(sc model.Schedule, hour, minute int) error {
	job, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
		gocron.NewTask(s.runScheduledFeed, sc),
		gocron.WithName("feed-"+sc.DeviceID),
	)
	if err != nil {
		return fmt.Errorf("register trigger for schedule %s: %w", sc.ID, err)
	}

	s.mu.Lock()
	s.jobs[sc.ID] = job.ID()
	s.mu.Unlock()
	return nil
}

// runScheduledFeed fires on the trigger. A failed dispatch is logged
// only; the trigger stays registered and fires again the next day.
func (s *Service) runScheduledFeed(sc model.Schedule) {
	log.Printf("executing scheduled feed for %s: %d%s", sc.DeviceID, sc.Amount, sc.Unit)
	if _, err := s.dispatcher.Feed(sc.DeviceID, sc.Amount, sc.Unit, model.SourceSchedule); err != nil {
		log.Printf("scheduled feed for %s failed: %v", sc.DeviceID, err)
	}
}

func withoutID(all []model.Schedule, id string) []model.Schedule {
	kept := make([]model.Schedule, 0, len(all))
	for _, sc := range all {
		if sc.ID != id {
			kept = append(kept, sc)
		}
	}
	return kept
}
