// Package metrics provides the centralized Prometheus metrics registry for the simulator.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fantasy_grid"

// Batch status labels
const (
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
	StatusInvalid   = "invalid"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	TrialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_trials_total",
		Help:      "Total number of simulated races",
	})
	BatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulation_batches_total",
		Help:      "Total number of Monte Carlo batches by status",
	}, []string{"status"})
	WeatherOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weather_outcomes_total",
		Help:      "Simulated races by drawn weather condition",
	}, []string{"condition"})
	PredictionPersistFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_persist_failures_total",
		Help:      "Total number of predictions that could not be stored",
	})
)

// Gauge metrics
var (
	FavouriteWinProbability = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "favourite_win_probability",
		Help:      "Win probability of the favourite in the latest batch per event",
	}, []string{"event"})
)

// Histogram metrics
var (
	BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simulation_batch_duration_seconds",
		Help:      "Duration of Monte Carlo batches in seconds",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	AveragePitStops = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "average_pit_stops",
		Help:      "Average pit stops per driver across a batch",
		Buckets:   []float64{0, 0.5, 1, 1.5, 2, 3, 4, 6},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(TrialsTotal)
		registry.MustRegister(BatchesTotal)
		registry.MustRegister(WeatherOutcomesTotal)
		registry.MustRegister(PredictionPersistFailuresTotal)

		registry.MustRegister(FavouriteWinProbability)

		registry.MustRegister(BatchDuration)
		registry.MustRegister(AveragePitStops)

		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(APIRequestDuration)
		registry.MustRegister(APIRateLimitedTotal)
		registry.MustRegister(ScheduledRunsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBatch records a finished Monte Carlo batch.
func RecordBatch(status string, trials int, duration time.Duration) {
	BatchesTotal.WithLabelValues(status).Inc()
	TrialsTotal.Add(float64(trials))
	BatchDuration.Observe(duration.Seconds())
}

// RecordFailedBatch counts a batch that produced no result.
func RecordFailedBatch(status string) {
	BatchesTotal.WithLabelValues(status).Inc()
}

// RecordWeather adds per-condition race counts.
func RecordWeather(counts map[string]int) {
	for condition, n := range counts {
		WeatherOutcomesTotal.WithLabelValues(condition).Add(float64(n))
	}
}

// RecordAveragePitStops observes one driver's average stop count.
func RecordAveragePitStops(avg float64) {
	AveragePitStops.Observe(avg)
}

// UpdateFavourite sets the favourite's win probability for an event.
func UpdateFavourite(event string, probability float64) {
	FavouriteWinProbability.WithLabelValues(event).Set(probability)
}

// RecordPersistFailure counts a failed prediction write.
func RecordPersistFailure() {
	PredictionPersistFailuresTotal.Inc()
}
