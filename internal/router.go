package router

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/HARDIK-TSH1392/Sandbox/internal/controllers"
	"github.com/HARDIK-TSH1392/Sandbox/internal/models/configs"
	"github.com/HARDIK-TSH1392/Sandbox/internal/repository"
	"github.com/HARDIK-TSH1392/Sandbox/internal/services"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/config"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/faultproxy"
	"github.com/HARDIK-TSH1392/Sandbox/pkg/sandbox"
)

// StartRoutes wires the whole service together and returns the HTTP router
// plus a shutdown hook for the registry's sweep loop.
func StartRoutes(cfg *config.Config, logger zerolog.Logger) (chi.Router, func(), error) {
	registry := repository.StartJobRegistry(configs.RegistryConfig{
		Retention: cfg.JobRetention,
	}, logger)

	proxies := faultproxy.StartController(configs.ProxyConfig{
		APIURL:     cfg.ToxiproxyURL,
		ListenHost: cfg.ProxyListenHost,
		PublicHost: cfg.ProxyPublicHost,
		BasePort:   cfg.ProxyBasePort,
	}, logger)

	executor, err := sandbox.StartExecutor(configs.SandboxConfig{
		StagingDirectory: cfg.StagingDirectory,
	}, logger)
	if err != nil {
		registry.Close()
		return nil, nil, fmt.Errorf("failed to start executor: %w", err)
	}

	lifecycle := services.StartLifecycleService(registry, executor, proxies, logger)
	jobService := services.StartJobService(registry, lifecycle)
	jobController := controllers.StartJobController(jobService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/jobs", jobController.HandleSubmit)
	r.Get("/jobs", jobController.HandleList)
	r.Get("/jobs/{id}", jobController.HandleDetail)
	r.Get("/jobs/{id}/status", jobController.HandleStatus)
	r.Post("/jobs/{id}/cancel", jobController.HandleCancel)

	return r, registry.Close, nil
}
