package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/paceline/auth-front/internal/jobs"
	jsonwriter "github.com/paceline/auth-front/internal/json"
	"github.com/paceline/auth-front/internal/storage"
)

// JobHandlers exposes the sync-job component over HTTP. All routes sit
// behind the bearer auth middleware; the job owner comes from the token, not
// from the request.
type JobHandlers struct {
	service *jobs.Service
}

// NewJobHandlers creates the job endpoint handlers.
func NewJobHandlers(service *jobs.Service) *JobHandlers {
	return &JobHandlers{service: service}
}

type createJobRequest struct {
	Params map[string]any `json:"params"`
}

type jobResponse struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Status      string         `json:"status"`
	Params      map[string]any `json:"params,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	FailedAt    *time.Time     `json:"failedAt,omitempty"`
}

func toJobResponse(job *storage.Job) jobResponse {
	resp := jobResponse{
		ID:        job.ID,
		UserID:    job.UserID,
		Status:    string(job.Status),
		Params:    job.Params,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
	}
	if !job.StartedAt.IsZero() {
		resp.StartedAt = &job.StartedAt
	}
	if !job.CompletedAt.IsZero() {
		resp.CompletedAt = &job.CompletedAt
	}
	if !job.FailedAt.IsZero() {
		resp.FailedAt = &job.FailedAt
	}
	return resp
}

// CreateHandler creates a sync job for the authenticated user
func (h *JobHandlers) CreateHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := UserFromContext(r.Context())
	if !ok {
		jsonwriter.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req createJobRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonwriter.WriteBadRequest(w, "Request body must be a JSON object")
			return
		}
	}

	job, err := h.service.Create(r.Context(), claims.UserID, req.Params)
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to create job")
		return
	}
	_ = jsonwriter.WriteResponse(w, http.StatusCreated, toJobResponse(job))
}

// ListHandler lists the authenticated user's jobs
func (h *JobHandlers) ListHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := UserFromContext(r.Context())
	if !ok {
		jsonwriter.WriteUnauthorized(w, "Unauthorized")
		return
	}

	userJobs, err := h.service.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		jsonwriter.WriteInternalServerError(w, "Failed to list jobs")
		return
	}

	responses := make([]jobResponse, 0, len(userJobs))
	for _, job := range userJobs {
		responses = append(responses, toJobResponse(job))
	}
	_ = jsonwriter.Write(w, responses)
}

// GetHandler returns one of the authenticated user's jobs by id. Jobs owned
// by other users are reported as not found.
func (h *JobHandlers) GetHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := UserFromContext(r.Context())
	if !ok {
		jsonwriter.WriteUnauthorized(w, "Unauthorized")
		return
	}

	job, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonwriter.WriteNotFound(w, "Job not found")
			return
		}
		jsonwriter.WriteInternalServerError(w, "Failed to get job")
		return
	}
	if job.UserID != claims.UserID {
		jsonwriter.WriteNotFound(w, "Job not found")
		return
	}
	_ = jsonwriter.Write(w, toJobResponse(job))
}
