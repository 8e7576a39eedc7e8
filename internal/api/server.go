// Package api is the intake surface: it accepts analysis requests, enqueues
// them, and answers status/result polls against the job store.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"media-analyzer/internal/model"
	"media-analyzer/internal/queue"
	"media-analyzer/internal/store"
)

// ErrInvalidSource rejects submissions whose source reference is not an
// http(s) URL.
var ErrInvalidSource = errors.New("source_url must be a valid http or https URL")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Server holds the intake API's collaborators. It never mutates job state
// beyond creating pending jobs; workers own everything after enqueue.
type Server struct {
	store  store.JobStore
	queue  queue.Queue
	logger *slog.Logger
}

func NewServer(s store.JobStore, q queue.Queue, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: s, queue: q, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/status/{id}", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/result/{id}", s.handleResult).Methods(http.MethodGet)
	api.HandleFunc("/jobs", s.handleListJobs).Methods(http.MethodGet)
	return r
}

type submitRequest struct {
	SourceURL string `json:"source_url"`
}

type submitResponse struct {
	JobID   string       `json:"job_id"`
	Status  model.Status `json:"status"`
	Message string       `json:"message"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateSource(req.SourceURL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.store.Create(r.Context(), req.SourceURL)
	if err != nil {
		s.logger.Error("failed to create job", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if err := s.queue.Enqueue(r.Context(), job.ID); err != nil {
		s.logger.Error("failed to enqueue job", "job_id", job.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	s.logger.Info("job submitted", "job_id", job.ID, "source", job.SourceRef)
	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "analysis job submitted; poll /api/status/{id} every few seconds",
	})
}

// statusResponse is the poll payload: lifecycle fields only, no result.
type statusResponse struct {
	JobID       string       `json:"job_id"`
	SourceURL   string       `json:"source_url"`
	Title       string       `json:"title,omitempty"`
	Status      model.Status `json:"status"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	CompletedAt string       `json:"completed_at,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func statusFromJob(job *model.Job) statusResponse {
	resp := statusResponse{
		JobID:     job.ID,
		SourceURL: job.SourceRef,
		Title:     job.Title,
		Status:    job.Status,
		CreatedAt: job.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339Nano),
		Error:     job.ErrorMessage,
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339Nano)
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusFromJob(job))
}

type resultResponse struct {
	JobID       string        `json:"job_id"`
	SourceURL   string        `json:"source_url"`
	Title       string        `json:"title,omitempty"`
	Status      model.Status  `json:"status"`
	Result      *model.Result `json:"result,omitempty"`
	FailedStage model.Stage   `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Message     string        `json:"message,omitempty"`
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	resp := resultResponse{
		JobID:     job.ID,
		SourceURL: job.SourceRef,
		Title:     job.Title,
		Status:    job.Status,
	}

	switch outcome := job.Outcome().(type) {
	case model.Completed:
		resp.Result = outcome.Result
		writeJSON(w, http.StatusOK, resp)
	case model.Failed:
		resp.FailedStage = outcome.Stage
		resp.Error = outcome.Message
		writeJSON(w, http.StatusOK, resp)
	case model.InProgress:
		resp.Message = "job is still processing; check back later"
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{Limit: defaultListLimit}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		opts.Offset = n
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := model.Status(v)
		if !model.ValidStatus(status) {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		opts.Status = &status
	}

	jobs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	summaries := make([]statusResponse, 0, len(jobs))
	for i := range jobs {
		summaries = append(summaries, statusFromJob(&jobs[i]))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// loadJob resolves the {id} path variable, writing the error response
// itself when the job cannot be served.
func (s *Server) loadJob(w http.ResponseWriter, r *http.Request) (*model.Job, bool) {
	id := mux.Vars(r)["id"]
	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job "+id+" not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to load job", "job_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return nil, false
	}
	return job, true
}

func validateSource(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidSource
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidSource
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSource
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
