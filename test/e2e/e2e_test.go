//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/fantasy-grid/internal/api"
	"github.com/yourusername/fantasy-grid/internal/config"
	"github.com/yourusername/fantasy-grid/internal/database"
	"github.com/yourusername/fantasy-grid/internal/health"
	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/repository"
	"github.com/yourusername/fantasy-grid/internal/scheduler"
	"github.com/yourusername/fantasy-grid/internal/service"
	"github.com/yourusername/fantasy-grid/internal/simulation"
)

const skipE2E = "Skipping E2E test in short mode"

var grid = []config.DriverConfig{
	{Name: "Verstappen", BaseLapTime: 80.0, Consistency: 0.2, PitStopLoss: 22},
	{Name: "Norris", BaseLapTime: 80.3, Consistency: 0.25, PitStopLoss: 22},
	{Name: "Leclerc", BaseLapTime: 80.5, Consistency: 0.3, PitStopLoss: 23},
	{Name: "Hamilton", BaseLapTime: 80.7, Consistency: 0.3, PitStopLoss: 23},
}

type stack struct {
	repo      repository.PredictionRepository
	svc       *service.PredictionService
	server    *httptest.Server
	scheduler *scheduler.Scheduler
	health    *health.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db := database.SetupTestDB(t)
	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)

	cfg := &config.Config{
		Simulation: config.SimulationConfig{DefaultIterations: 200, DefaultTotalLaps: 30, BatchTimeoutSeconds: 60},
		Ingestion:  config.IngestionConfig{PitStopLoss: 24, MinConsistency: 0.1, QuickLapFactor: 1.07, MinLaps: 2, MinDrivers: 2},
		Server:     config.ServerConfig{Port: 8080, RateLimitPerSecond: 100, Burst: 100, MaxIterations: 5000},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Events: []config.EventConfig{
			{Name: "e2e-monza", TotalLaps: 30, RainProbability: 0.3, Iterations: 200, Drivers: grid, Schedule: "@every 1h"},
		},
	}

	svc := service.NewPredictionService(service.ConfigFrom(cfg), repos.Prediction, log)
	srv := httptest.NewServer(api.NewServer(api.ConfigFrom(cfg), svc, log).Handler())
	t.Cleanup(srv.Close)

	sched := scheduler.NewScheduler(svc, log, cfg.BatchTimeout())
	added, err := sched.ScheduleEvents(cfg.Events)
	require.NoError(t, err)
	require.Equal(t, 1, added)

	return &stack{
		repo:      repos.Prediction,
		svc:       svc,
		server:    srv,
		scheduler: sched,
		health: health.NewServer(health.Config{
			ServiceName: "fantasy-grid",
			Logger:      log,
			Checks:      map[string]health.Pinger{"database": db},
		}),
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func TestE2EPredictionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip(skipE2E)
	}
	s := newStack(t)

	resp := postJSON(t, s.server.URL+"/api/v1/predictions", map[string]interface{}{
		"event": "e2e-monza",
		"seed":  99,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Prediction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "e2e-monza", created.Event)
	assert.Equal(t, 200, created.Iterations)
	require.Len(t, created.Forecasts, len(grid))

	stored, err := s.repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Seed, stored.Seed)
	assert.Equal(t, created.Favourite().Driver, stored.Favourite().Driver)

	latest, err := http.Get(s.server.URL + "/api/v1/events/e2e-monza/predictions/latest")
	require.NoError(t, err)
	defer latest.Body.Close()
	assert.Equal(t, http.StatusOK, latest.StatusCode)

	var got models.Prediction
	require.NoError(t, json.NewDecoder(latest.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
}

func TestE2EScheduledRunIsStored(t *testing.T) {
	if testing.Short() {
		t.Skip(skipE2E)
	}
	s := newStack(t)
	ctx := context.Background()

	event := config.EventConfig{Name: "e2e-spa", TotalLaps: 20, Iterations: 100, Drivers: grid}
	require.NoError(t, s.scheduler.RunEvent(ctx, event))

	history, err := s.svc.HistoryForEvent(ctx, "e2e-spa", 5)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, 20, history[0].TotalLaps)
}

func TestE2ESingleRaceAndStream(t *testing.T) {
	if testing.Short() {
		t.Skip(skipE2E)
	}
	s := newStack(t)

	drivers := make([]simulation.Driver, 0, len(grid))
	for _, d := range grid {
		drivers = append(drivers, simulation.Driver{Name: d.Name, BaseLapTime: d.BaseLapTime, Consistency: d.Consistency, PitStopLoss: d.PitStopLoss})
	}

	resp := postJSON(t, s.server.URL+"/api/v1/races/simulate", service.RaceRequest{Drivers: drivers, TotalLaps: 25, Seed: 5})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/api/v1/predictions/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(service.PredictionRequest{Event: "e2e-stream", Drivers: drivers, TotalLaps: 25, Iterations: 150, Seed: 11}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(30*time.Second)))

	for {
		var frame api.StreamFrame
		require.NoError(t, conn.ReadJSON(&frame))
		require.NotEqual(t, "error", frame.Type, frame.Error)
		if frame.Type == "result" {
			require.NotNil(t, frame.Prediction)
			assert.Equal(t, "e2e-stream", frame.Prediction.Event)
			break
		}
	}
}

func TestE2EReadinessPingsDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip(skipE2E)
	}
	s := newStack(t)
	s.health.SetReady(true)

	rec := httptest.NewRecorder()
	s.health.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "database")
}
