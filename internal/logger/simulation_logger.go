package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SimulationLogger logs Monte Carlo batch lifecycle events.
type SimulationLogger struct {
	*logrus.Entry
}

// NewSimulationLogger creates a new simulation logger.
func NewSimulationLogger(baseLogger *logrus.Logger) *SimulationLogger {
	return &SimulationLogger{
		Entry: baseLogger.WithField("component", "simulation"),
	}
}

// LogBatchStarted logs the start of a prediction batch.
func (sl *SimulationLogger) LogBatchStarted(event string, drivers, iterations, totalLaps int, rainProbability float64, seed int64) {
	sl.WithFields(logrus.Fields{
		"event":            event,
		"drivers":          drivers,
		"iterations":       iterations,
		"total_laps":       totalLaps,
		"rain_probability": rainProbability,
		"seed":             seed,
	}).Info("Prediction batch started")
}

// LogBatchCompleted logs a finished batch with its headline forecast.
func (sl *SimulationLogger) LogBatchCompleted(event string, iterations int, duration time.Duration, favourite string, winProbability float64, weather string) {
	sl.WithFields(logrus.Fields{
		"event":           event,
		"iterations":      iterations,
		"duration_ms":     duration.Milliseconds(),
		"favourite":       favourite,
		"win_probability": winProbability,
		"weather":         weather,
	}).Info("Prediction batch completed")
}

// LogBatchFailed logs an aborted or invalid batch.
func (sl *SimulationLogger) LogBatchFailed(event string, iterations int, err error) {
	sl.WithFields(logrus.Fields{
		"event":      event,
		"iterations": iterations,
		"error":      err.Error(),
	}).Error("Prediction batch failed")
}

// LogSingleRace logs a one-off seeded race.
func (sl *SimulationLogger) LogSingleRace(seed int64, totalLaps int, winner, weather string) {
	sl.WithFields(logrus.Fields{
		"seed":       seed,
		"total_laps": totalLaps,
		"winner":     winner,
		"weather":    weather,
	}).Debug("Single race simulated")
}
