package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yourusername/fantasy-grid/internal/models"
	"github.com/yourusername/fantasy-grid/internal/service"
)

const maxBodyBytes = 1 << 20

// predictionBody is the wire form of a prediction request. RainProbability
// is a pointer so an explicit zero can override a configured event.
type predictionBody struct {
	service.PredictionRequest
	RainProbability *float64 `json:"rain_probability,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req service.RaceRequest
	if !s.decode(w, r, &req) {
		return
	}

	race, err := s.svc.SimulateOnce(req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, race)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var body predictionBody
	if !s.decode(w, r, &body) {
		return
	}
	req := s.withEventDefaults(body)
	if err := s.checkIterations(req.Iterations); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.audit.LogPredictionRequested("api", req.Event, r.RemoteAddr)

	prediction, err := s.svc.Predict(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, prediction)
}

func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, models.ErrInvalidID.Error())
		return
	}

	prediction, err := s.svc.GetPrediction(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	prediction, err := s.svc.LatestForEvent(r.Context(), r.PathValue("event"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	predictions, err := s.svc.HistoryForEvent(r.Context(), r.PathValue("event"), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if predictions == nil {
		predictions = []*models.Prediction{}
	}
	writeJSON(w, http.StatusOK, predictions)
}

// decode reads and validates a JSON body, replying 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	if err := s.validateRequest(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func (s *Server) validateRequest(v interface{}) error {
	return s.validate.Struct(v)
}

// withEventDefaults fills a bare event request from configuration. Fields
// the caller set take precedence.
func (s *Server) withEventDefaults(body predictionBody) service.PredictionRequest {
	req := body.PredictionRequest
	if body.RainProbability != nil {
		req.RainProbability = *body.RainProbability
	}
	if len(req.Drivers) > 0 || req.LapsFile != "" {
		return req
	}
	e, ok := s.event(req.Event)
	if !ok {
		return req
	}

	configured := service.RequestFromEvent(e)
	if req.TotalLaps > 0 {
		configured.TotalLaps = req.TotalLaps
	}
	if body.RainProbability != nil {
		configured.RainProbability = req.RainProbability
	}
	if req.Iterations > 0 {
		configured.Iterations = req.Iterations
	}
	configured.Seed = req.Seed
	return configured
}

func (s *Server) checkIterations(n int) error {
	if s.cfg.MaxIterations > 0 && n > s.cfg.MaxIterations {
		return fmt.Errorf("iterations must not exceed %d", s.cfg.MaxIterations)
	}
	return nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("status", status).Error("Request failed")
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case service.IsInvalidInput(err):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPredictionNotFound), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: "validation failed"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Details = append(resp.Details, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
	} else {
		resp.Details = []string{err.Error()}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
