// Package http exposes the interview engine as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
)

// Engine defines the interface for the parley interview core.
type Engine interface {
	Start(ctx context.Context, interviewID, target string, runContext, data map[string]any) (string, *interview.Context, error)
	Update(ctx context.Context, stateKey string, responses map[string]any) (string, interview.Content, error)
	Result(ctx context.Context, stateKey string) (*parley.Result, error)
}

// Server handles the interview API routes.
type Server struct {
	Engine Engine
	Logger *slog.Logger
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	server := &Server{Engine: engine, Logger: logger}
	r := chi.NewRouter()

	r.Post("/interviews/{interview_id}", server.StartInterview)
	r.Post("/update-interview", server.UpdateInterview)
	r.Get("/completed-interviews/{state}", server.CompletedInterview)
	r.Get("/_healthcheck", server.Healthcheck)
	r.Method("GET", "/metrics", promhttp.Handler())

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartRequest is the body of POST /interviews/{interview_id}.
type StartRequest struct {
	Target  string         `json:"target"`
	Context map[string]any `json:"context"`
	Data    map[string]any `json:"data"`
}

// UpdateRequest is the body of POST /update-interview.
type UpdateRequest struct {
	State     string         `json:"state"`
	Responses map[string]any `json:"responses"`
}

// InterviewResponse describes a stored snapshot to the client. For a
// running interview Target carries the update URL and Content the payload
// to render; for a completed one Target is the submission target.
type InterviewResponse struct {
	State     string            `json:"state"`
	Completed bool              `json:"completed"`
	Target    string            `json:"target"`
	Content   interview.Content `json:"content,omitempty"`
}

// StartInterview handles POST /interviews/{interview_id}.
func (s *Server) StartInterview(w http.ResponseWriter, r *http.Request) {
	interviewID := chi.URLParam(r, "interview_id")

	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	key, ic, err := s.Engine.Start(r.Context(), interviewID, body.Target, body.Context, body.Data)
	if errors.Is(err, interview.ErrInterviewNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, "start failed", err)
		return
	}

	interviewsStarted.WithLabelValues(interviewID).Inc()
	s.writeJSON(w, http.StatusOK, makeResponse(r, key, ic.State, nil))
}

// UpdateInterview handles POST /update-interview.
func (s *Server) UpdateInterview(w http.ResponseWriter, r *http.Request) {
	var body UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	key, content, err := s.Engine.Update(r.Context(), body.State, body.Responses)

	var verr *input.ValidationError
	switch {
	case errors.Is(err, interview.ErrInterviewNotFound):
		http.NotFound(w, r)
		return
	case errors.As(err, &verr):
		interviewUpdates.WithLabelValues("invalid").Inc()
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"status":  http.StatusUnprocessableEntity,
			"message": "Invalid input",
			"fields":  verr.Fields,
		})
		return
	case err != nil:
		interviewUpdates.WithLabelValues("error").Inc()
		s.serverError(w, "update failed", err)
		return
	}

	if content == nil {
		interviewUpdates.WithLabelValues("completed").Inc()
		result, err := s.Engine.Result(r.Context(), key)
		if err != nil {
			s.serverError(w, "update failed", err)
			return
		}
		s.writeJSON(w, http.StatusOK, InterviewResponse{
			State:     key,
			Completed: true,
			Target:    result.Target,
		})
		return
	}

	interviewUpdates.WithLabelValues(content.ContentType()).Inc()
	s.writeJSON(w, http.StatusOK, incompleteResponse(r, key, content))
}

// CompletedInterview handles GET /completed-interviews/{state}. Incomplete
// and expired interviews are indistinguishable from unknown keys.
func (s *Server) CompletedInterview(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")

	result, err := s.Engine.Result(r.Context(), state)
	switch {
	case errors.Is(err, interview.ErrInterviewNotFound), errors.Is(err, parley.ErrNotCompleted):
		http.NotFound(w, r)
	case err != nil:
		s.serverError(w, "result lookup failed", err)
	default:
		s.writeJSON(w, http.StatusOK, result)
	}
}

// Healthcheck handles GET /_healthcheck. It probes the state store with a
// lookup that is expected to miss.
func (s *Server) Healthcheck(w http.ResponseWriter, r *http.Request) {
	_, err := s.Engine.Result(r.Context(), "")
	if err != nil && !errors.Is(err, interview.ErrInterviewNotFound) && !errors.Is(err, parley.ErrNotCompleted) {
		s.Logger.Error("healthcheck failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.Logger.Error(msg, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func makeResponse(r *http.Request, key string, state interview.State, content interview.Content) InterviewResponse {
	if state.Completed {
		return InterviewResponse{State: key, Completed: true, Target: state.Target}
	}
	return incompleteResponse(r, key, content)
}

func incompleteResponse(r *http.Request, key string, content interview.Content) InterviewResponse {
	return InterviewResponse{
		State:   key,
		Target:  updateURL(r),
		Content: content,
	}
}

// updateURL builds the absolute URL of the update route, so clients can
// follow the response without knowing the API layout.
func updateURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + "/update-interview"
}
