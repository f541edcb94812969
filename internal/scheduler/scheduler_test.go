package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/hanzibot/internal/cards"
	"github.com/example/hanzibot/internal/selection"
	"github.com/example/hanzibot/pkg/models"
)

type fakeDue struct {
	due map[models.TaskType][]selection.Scored
	err error
}

func (f *fakeDue) Due(ctx context.Context, cardType models.TaskType) ([]selection.Scored, error) {
	return f.due[cardType], f.err
}

type fakeNotifier struct {
	sent []Reminder
	err  error
}

func (f *fakeNotifier) SendReminder(ctx context.Context, r Reminder) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

func newTestScheduler(due DueLister, n Notifier, load cards.Loader) *Scheduler {
	if load == nil {
		load = func(ctx context.Context) ([]models.ReviewEvent, error) { return nil, nil }
	}
	return New(cards.NewCache(nil, load), due, n, "09:00", time.UTC, zerolog.Nop())
}

func TestRunManualCheckSendsReminder(t *testing.T) {
	due := &fakeDue{due: map[models.TaskType][]selection.Scored{
		models.TaskRead:  {{Character: "你", Retrievability: 0.5}},
		models.TaskWrite: {{Character: "好", Retrievability: 0.3}, {Character: "吗", Retrievability: 0.4}},
	}}
	n := &fakeNotifier{}
	s := newTestScheduler(due, n, nil)

	r, err := s.RunManualCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, r.Total())
	require.Len(t, n.sent, 1)
	assert.Equal(t, "你", n.sent[0].Read[0].Character)
}

func TestRunManualCheckSkipsWhenNothingDue(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(&fakeDue{}, n, nil)

	r, err := s.RunManualCheck(context.Background())
	require.NoError(t, err)
	assert.Zero(t, r.Total())
	assert.Empty(t, n.sent)
}

func TestRunManualCheckErrors(t *testing.T) {
	boom := errors.New("boom")

	s := newTestScheduler(&fakeDue{err: boom}, &fakeNotifier{}, nil)
	_, err := s.RunManualCheck(context.Background())
	assert.ErrorIs(t, err, boom)

	due := &fakeDue{due: map[models.TaskType][]selection.Scored{
		models.TaskRead: {{Character: "你"}},
	}}
	s = newTestScheduler(due, &fakeNotifier{err: boom}, nil)
	_, err = s.RunManualCheck(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRebuildCacheReloadsEvents(t *testing.T) {
	loads := 0
	load := func(ctx context.Context) ([]models.ReviewEvent, error) {
		loads++
		d, _ := models.ParseDate("2024-01-01")
		return []models.ReviewEvent{{ID: 1, Character: "你", Type: models.TaskRead, Score: 7, Date: d}}, nil
	}
	s := newTestScheduler(&fakeDue{}, nil, load)

	require.NoError(t, s.RebuildCache(context.Background()))
	require.NoError(t, s.RebuildCache(context.Background()))
	assert.Equal(t, 2, loads)
}

func TestStartRegistersJobs(t *testing.T) {
	s := newTestScheduler(&fakeDue{}, &fakeNotifier{}, nil)
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Equal(t, 2, s.Jobs())

	quiet := newTestScheduler(&fakeDue{}, nil, nil)
	require.NoError(t, quiet.Start())
	defer quiet.Stop()
	assert.Equal(t, 1, quiet.Jobs())
}
