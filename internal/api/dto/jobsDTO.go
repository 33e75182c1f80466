package dto

import (
	"time"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
)

type SubmitJobRequest struct {
	Language string          `json:"language"`
	Code     string          `json:"code"`
	Scenario models.Scenario `json:"scenario"`
}

type SubmitJobResponse struct {
	JobID  string        `json:"jobId"`
	Status models.Status `json:"status"`
}

type JobDetailResponse struct {
	JobID  string         `json:"jobId"`
	Status models.Status  `json:"status"`
	Logs   []string       `json:"logs"`
	Result *models.Result `json:"result,omitempty"`
}

type JobStatusResponse struct {
	JobID       string        `json:"jobId"`
	Status      models.Status `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

type CancelJobResponse struct {
	JobID  string        `json:"jobId"`
	Status models.Status `json:"status"`
}
