package scheduler

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fantasy-grid/internal/config"
	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/montecarlo"
	"github.com/yourusername/fantasy-grid/internal/service"
)

type fakePredictor struct {
	mu    sync.Mutex
	calls []service.PredictionRequest
	err   error
}

func (f *fakePredictor) Predict(_ context.Context, req service.PredictionRequest, _ ...montecarlo.Option) (*models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Prediction{
		Event: req.Event,
		Forecasts: []models.DriverForecast{
			{Driver: "VER", WinProbability: decimal.RequireFromString("0.55")},
		},
	}, nil
}

func (f *fakePredictor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func monza(schedule string) config.EventConfig {
	return config.EventConfig{
		Name:      "monza",
		TotalLaps: 53,
		Schedule:  schedule,
		Drivers: []config.DriverConfig{
			{Name: "VER", BaseLapTime: 81.2, Consistency: 0.3, PitStopLoss: 22},
		},
	}
}

func TestScheduleEvents(t *testing.T) {
	s := NewScheduler(&fakePredictor{}, quietLogger(), time.Minute)

	added, err := s.ScheduleEvents([]config.EventConfig{
		monza("0 */6 * * *"),
		{Name: "spa", TotalLaps: 44, LapsFile: "spa.csv"},
		{Name: "imola", TotalLaps: 63, LapsFile: "imola.csv", Schedule: "30 12 * * 5"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	names := s.Events()
	sort.Strings(names)
	assert.Equal(t, []string{"imola", "monza"}, names)
}

func TestScheduleEventErrors(t *testing.T) {
	s := NewScheduler(&fakePredictor{}, quietLogger(), time.Minute)

	assert.Error(t, s.ScheduleEvent(monza("")))
	assert.Error(t, s.ScheduleEvent(monza("not a cron")))
	require.NoError(t, s.ScheduleEvent(monza("@hourly")))
	assert.Error(t, s.ScheduleEvent(monza("@daily")))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakePredictor{}, quietLogger(), time.Minute)
	assert.Error(t, s.Start(), "no jobs")

	require.NoError(t, s.ScheduleEvent(monza("@hourly")))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.False(t, s.GetNextRun().IsZero())

	assert.Error(t, s.ScheduleEvent(config.EventConfig{Name: "spa", Schedule: "@daily"}))
	assert.Error(t, s.RemoveEvent("monza"))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}

func TestRemoveEvent(t *testing.T) {
	s := NewScheduler(&fakePredictor{}, quietLogger(), time.Minute)
	require.NoError(t, s.ScheduleEvent(monza("@hourly")))

	require.NoError(t, s.RemoveEvent("monza"))
	assert.Empty(t, s.Events())
	assert.ErrorIs(t, s.RemoveEvent("monza"), models.ErrUnknownEvent)
}

func TestRunEvent(t *testing.T) {
	p := &fakePredictor{}
	s := NewScheduler(p, quietLogger(), time.Minute)

	require.NoError(t, s.RunEvent(context.Background(), monza("")))
	require.Equal(t, 1, p.callCount())
	assert.Equal(t, "monza", p.calls[0].Event)
	assert.Equal(t, 53, p.calls[0].TotalLaps)
	assert.Len(t, p.calls[0].Drivers, 1)
}

func TestRunEventFailure(t *testing.T) {
	boom := errors.New("batch failed")
	s := NewScheduler(&fakePredictor{err: boom}, quietLogger(), time.Minute)

	assert.ErrorIs(t, s.RunEvent(context.Background(), monza("")), boom)
}

func TestScheduledJobFires(t *testing.T) {
	p := &fakePredictor{}
	s := NewScheduler(p, quietLogger(), time.Minute)
	require.NoError(t, s.ScheduleEvent(monza("@every 1s")))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return p.callCount() > 0 }, 5*time.Second, 50*time.Millisecond)
}
