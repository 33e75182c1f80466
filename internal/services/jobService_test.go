package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
)

func TestSubmit_NormalizesLanguageAliases(t *testing.T) {
	fx := newLifecycleFixture(t)
	jobs := StartJobService(fx.registry, fx.lifecycle)

	job := jobs.Submit("node", "console.log(1)", models.Scenario{})
	assert.Equal(t, models.JavaScript, job.Language)
	fx.waitTerminal(t, job.ID)

	job = jobs.Submit("py", "print(1)", models.Scenario{})
	assert.Equal(t, models.Python, job.Language)
	fx.waitTerminal(t, job.ID)
}

func TestSubmit_UnknownLanguagePassesThroughAndFails(t *testing.T) {
	fx := newLifecycleFixture(t)
	jobs := StartJobService(fx.registry, fx.lifecycle)

	job := jobs.Submit("ruby", "puts 1", models.Scenario{})
	assert.Equal(t, models.Language("ruby"), job.Language)

	got := fx.waitTerminal(t, job.ID)
	assert.Equal(t, models.StatusFailed, got.Status)
}

func TestSubmit_RecordsAcceptanceLog(t *testing.T) {
	fx := newLifecycleFixture(t)
	jobs := StartJobService(fx.registry, fx.lifecycle)

	job := jobs.Submit("python", "print(1)", models.Scenario{})
	got := fx.waitTerminal(t, job.ID)

	assert.Contains(t, got.Logs[0], "job accepted")
}
