package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/montecarlo"
)

// Stream frame types
const (
	FrameProgress = "progress"
	FrameResult   = "result"
	FrameError    = "error"
)

const (
	writeWait = 10 * time.Second
	// progressSteps bounds the number of progress frames per batch.
	progressSteps = 100
)

// StreamFrame is one message sent to a streaming client
type StreamFrame struct {
	Type       string             `json:"type"`
	Completed  int                `json:"completed,omitempty"`
	Total      int                `json:"total,omitempty"`
	Prediction *models.Prediction `json:"prediction,omitempty"`
	Error      string             `json:"error,omitempty"`
	Status     int                `json:"status,omitempty"`
}

// handleStream upgrades to a websocket, reads one prediction request and
// streams progress frames followed by a result or error frame.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)

	var body predictionBody
	if err := conn.ReadJSON(&body); err != nil {
		s.sendFrame(conn, StreamFrame{Type: FrameError, Error: "invalid request: " + err.Error(), Status: http.StatusBadRequest})
		return
	}
	if err := s.validateRequest(&body); err != nil {
		s.sendFrame(conn, StreamFrame{Type: FrameError, Error: err.Error(), Status: http.StatusBadRequest})
		return
	}
	req := s.withEventDefaults(body)
	if err := s.checkIterations(req.Iterations); err != nil {
		s.sendFrame(conn, StreamFrame{Type: FrameError, Error: err.Error(), Status: http.StatusBadRequest})
		return
	}

	s.audit.LogPredictionRequested("stream", req.Event, r.RemoteAddr)

	// The batch is abandoned once the client goes away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	progress := make(chan StreamFrame, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for frame := range progress {
			s.sendFrame(conn, frame)
		}
	}()

	prediction, err := s.svc.Predict(ctx, req, montecarlo.WithProgress(progressReporter(progress)))
	close(progress)
	wg.Wait()

	if err != nil {
		s.sendFrame(conn, StreamFrame{Type: FrameError, Error: err.Error(), Status: statusFor(err)})
		return
	}
	s.sendFrame(conn, StreamFrame{Type: FrameResult, Prediction: prediction})

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeWait))
}

// progressReporter forwards roughly progressSteps updates per batch. Updates
// are dropped rather than blocking workers when the client is slow; the last
// trial is always delivered.
func progressReporter(out chan<- StreamFrame) montecarlo.ProgressFunc {
	return func(completed, total int) {
		step := total / progressSteps
		if step < 1 {
			step = 1
		}
		frame := StreamFrame{Type: FrameProgress, Completed: completed, Total: total}
		if completed == total {
			out <- frame
			return
		}
		if completed%step != 0 {
			return
		}
		select {
		case out <- frame:
		default:
		}
	}
}

func (s *Server) sendFrame(conn *websocket.Conn, frame StreamFrame) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		s.logger.WithError(err).Debug("Failed to write stream frame")
	}
}
