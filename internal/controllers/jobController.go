package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HARDIK-TSH1392/Sandbox/internal/api/dto"
	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	customErrors "github.com/HARDIK-TSH1392/Sandbox/internal/models/errors"
	"github.com/HARDIK-TSH1392/Sandbox/internal/services"
)

type JobController struct {
	jobs *services.JobService
}

func StartJobController(jobs *services.JobService) *JobController {
	return &JobController{jobs: jobs}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (c *JobController) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	defer r.Body.Close()

	if req.Language == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing required fields (language, code)")
		return
	}

	job := c.jobs.Submit(req.Language, req.Code, req.Scenario)

	writeJSON(w, http.StatusAccepted, dto.SubmitJobResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

func (c *JobController) HandleDetail(w http.ResponseWriter, r *http.Request) {
	job, err := c.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, dto.JobDetailResponse{
		JobID:  job.ID,
		Status: job.Status,
		Logs:   job.Logs,
		Result: job.Result,
	})
}

func (c *JobController) HandleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := c.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, dto.JobStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	})
}

func (c *JobController) HandleCancel(w http.ResponseWriter, r *http.Request) {
	job, err := c.jobs.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, customErrors.ErrNotFound):
			writeError(w, http.StatusNotFound, "job not found")
		case errors.Is(err, customErrors.ErrInvalidState):
			writeError(w, http.StatusBadRequest, "job is already in a terminal state")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.CancelJobResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

func (c *JobController) HandleList(w http.ResponseWriter, r *http.Request) {
	var filter *models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		filter = &status
	}

	summaries := c.jobs.List(filter)
	items := make([]dto.JobStatusResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, dto.JobStatusResponse{
			JobID:       s.ID,
			Status:      s.Status,
			CreatedAt:   s.CreatedAt,
			CompletedAt: s.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}
