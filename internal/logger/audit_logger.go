package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogPredictionStored records a persisted prediction.
func (al *AuditLogger) LogPredictionStored(predictionID, event string, iterations int, seed int64) {
	al.WithFields(logrus.Fields{
		"prediction_id": predictionID,
		"event":         event,
		"iterations":    iterations,
		"seed":          seed,
	}).Info("Prediction stored")
}

// LogPredictionRequested records who asked for a forecast and through which surface.
func (al *AuditLogger) LogPredictionRequested(source, event, remoteAddr string) {
	al.WithFields(logrus.Fields{
		"source":      source,
		"event":       event,
		"remote_addr": remoteAddr,
	}).Info("Prediction requested")
}

// LogScheduledRun records a cron-triggered refresh.
func (al *AuditLogger) LogScheduledRun(event, schedule string, success bool) {
	al.WithFields(logrus.Fields{
		"event":    event,
		"schedule": schedule,
		"success":  success,
	}).Info("Scheduled prediction run")
}
