package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/pkg/models"
)

// RebuildTime is when the card cache is rebuilt each day
const RebuildTime = "00:05"

// Reminder summarizes the cards due when the reminder job runs
type Reminder struct {
	Read  []selection.Scored
	Write []selection.Scored
}

// Total returns the number of due cards of both types
func (r Reminder) Total() int {
	return len(r.Read) + len(r.Write)
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// DueLister reports due cards per card type
type DueLister interface {
	Due(ctx context.Context, cardType models.TaskType) ([]selection.Scored, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler    *gocron.Scheduler
	cache        *cards.Cache
	due          DueLister
	notifier     Notifier
	reminderTime string
	logger       zerolog.Logger
}

// New creates a new scheduler instance running in loc
func New(cache *cards.Cache, due DueLister, notifier Notifier, reminderTime string, loc *time.Location, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(loc),
		cache:        cache,
		due:          due,
		notifier:     notifier,
		reminderTime: reminderTime,
		logger:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the daily jobs and runs them in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(RebuildTime).Do(s.rebuildCache); err != nil {
		return fmt.Errorf("failed to schedule cache rebuild: %w", err)
	}
	if s.notifier != nil {
		if _, err := s.scheduler.Every(1).Day().At(s.reminderTime).Do(s.sendReminders); err != nil {
			return fmt.Errorf("failed to schedule reminders: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info().Str("reminder_time", s.reminderTime).Msg("Scheduler started")
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

func (s *Scheduler) rebuildCache() {
	if err := s.RebuildCache(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Cache rebuild failed")
	}
}

// RebuildCache drops the cached cards and replays the event log
func (s *Scheduler) RebuildCache(ctx context.Context) error {
	s.cache.Invalidate()
	store, err := s.cache.Get(ctx)
	if err != nil {
		return err
	}
	s.logger.Info().Int("characters", store.Len()).Msg("Card cache rebuilt")
	return nil
}

func (s *Scheduler) sendReminders() {
	if _, err := s.RunManualCheck(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Reminder failed")
	}
}

// RunManualCheck collects the due cards and notifies if any are due. It
// returns the collected reminder.
func (s *Scheduler) RunManualCheck(ctx context.Context) (Reminder, error) {
	var r Reminder
	var err error
	if r.Read, err = s.due.Due(ctx, models.TaskRead); err != nil {
		return r, err
	}
	if r.Write, err = s.due.Due(ctx, models.TaskWrite); err != nil {
		return r, err
	}

	if r.Total() == 0 {
		s.logger.Debug().Msg("Nothing due, skipping reminder")
		return r, nil
	}
	if s.notifier == nil {
		return r, nil
	}
	if err := s.notifier.SendReminder(ctx, r); err != nil {
		return r, fmt.Errorf("failed to send reminder: %w", err)
	}
	s.logger.Info().Int("read", len(r.Read)).Int("write", len(r.Write)).Msg("Reminder sent")
	return r, nil
}
