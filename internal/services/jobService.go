package services

import (
	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	"github.com/HARDIK-TSH1392/Sandbox/internal/repository"
)

// JobService is the thin submission surface in front of the registry and
// the lifecycle controller.
type JobService struct {
	registry  *repository.JobRegistry
	lifecycle *LifecycleService
}

func StartJobService(registry *repository.JobRegistry, lifecycle *LifecycleService) *JobService {
	return &JobService{
		registry:  registry,
		lifecycle: lifecycle,
	}
}

// Submit creates the job record and launches its execution flow. Language
// aliases are normalized here; an unknown language still produces a job,
// which the lifecycle immediately fails with UnsupportedLanguage.
func (s *JobService) Submit(languageToken, code string, scenario models.Scenario) models.Job {
	language, err := models.ParseLanguage(languageToken)
	if err != nil {
		language = models.Language(languageToken)
	}

	job := s.registry.Create(language, code, scenario)
	s.registry.AppendLog(job.ID, "job accepted")
	s.lifecycle.Launch(job)
	return job
}

func (s *JobService) Get(id string) (models.Job, error) {
	return s.registry.Get(id)
}

func (s *JobService) List(filter *models.Status) []models.Summary {
	return s.registry.List(filter)
}

func (s *JobService) Cancel(id string) (models.Job, error) {
	return s.lifecycle.Cancel(id)
}
