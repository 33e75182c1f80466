// Package faultproxy provisions per-job fault-injecting reverse proxies on a
// toxiproxy daemon. Each network-faulted job gets its own proxy on an
// exclusive listen port so concurrent jobs never share a listener.
package faultproxy

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/HARDIK-TSH1392/Sandbox/internal/models"
	"github.com/HARDIK-TSH1392/Sandbox/internal/models/configs"
)

// defaultUpstream is the well-known test origin proxied when the scenario
// does not name one.
const defaultUpstream = "httpbin.org:80"

// portRange is the size of the listen-port window above the base port, and
// therefore the ceiling on simultaneously live network-faulted jobs.
const portRange = 1000

// Handle describes one live proxy. At most one exists per job id; it must be
// torn down exactly once per job regardless of the execution outcome.
type Handle struct {
	Name string
	Host string
	Port int
}

type Controller struct {
	client *resty.Client
	logger zerolog.Logger

	listenHost string
	publicHost string
	basePort   int

	mu    sync.Mutex
	next  int
	inUse map[int]bool
}

func StartController(cfg configs.ProxyConfig, logger zerolog.Logger) *Controller {
	return &Controller{
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetBaseURL(cfg.APIURL),
		logger:     logger,
		listenHost: cfg.ListenHost,
		publicHost: cfg.PublicHost,
		basePort:   cfg.BasePort,
		inUse:      make(map[int]bool),
	}
}

type proxyBody struct {
	Name     string `json:"name"`
	Listen   string `json:"listen"`
	Upstream string `json:"upstream"`
	Enabled  bool   `json:"enabled"`
}

type toxicBody struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Stream     string         `json:"stream"`
	Toxicity   float64        `json:"toxicity"`
	Attributes map[string]int `json:"attributes"`
}

// Provision creates the proxy for a job and attaches the requested toxics in
// order: latency, bandwidth, timeout. The returned handle carries the
// address the sandboxed code must use as its outbound proxy.
func (c *Controller) Provision(ctx context.Context, jobID string, sc models.Scenario) (*Handle, error) {
	name := "sandbox-" + jobID

	// A proxy left over from an earlier crashed run with the same name would
	// make creation fail, so delete defensively first.
	_ = c.delete(ctx, name)

	port, err := c.allocatePort()
	if err != nil {
		return nil, err
	}
	upstream := sc.Upstream
	if upstream == "" {
		upstream = defaultUpstream
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(proxyBody{
			Name:     name,
			Listen:   fmt.Sprintf("%s:%d", c.listenHost, port),
			Upstream: upstream,
			Enabled:  true,
		}).
		Post("/proxies")
	if err != nil {
		c.releasePort(port)
		return nil, fmt.Errorf("failed to create proxy %s: %w", name, err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		c.releasePort(port)
		return nil, fmt.Errorf("failed to create proxy %s: toxiproxy returned %d", name, resp.StatusCode())
	}

	toxics := []toxicBody{}
	if sc.NetworkLatencyMs > 0 {
		toxics = append(toxics, toxicBody{
			Name: "latency", Type: "latency", Stream: "downstream", Toxicity: 1.0,
			Attributes: map[string]int{"latency": sc.NetworkLatencyMs},
		})
	}
	if sc.BandwidthKbps > 0 {
		toxics = append(toxics, toxicBody{
			Name: "bandwidth", Type: "bandwidth", Stream: "downstream", Toxicity: 1.0,
			Attributes: map[string]int{"rate": sc.BandwidthKbps},
		})
	}
	if sc.TimeoutMs > 0 {
		toxics = append(toxics, toxicBody{
			Name: "timeout", Type: "timeout", Stream: "downstream", Toxicity: 1.0,
			Attributes: map[string]int{"timeout": sc.TimeoutMs},
		})
	}

	for _, toxic := range toxics {
		if err := c.addToxic(ctx, name, toxic); err != nil {
			// Half-provisioned proxies are worse than none.
			_ = c.delete(ctx, name)
			c.releasePort(port)
			return nil, err
		}
	}

	c.logger.Info().
		Str("proxy", name).
		Str("upstream", upstream).
		Int("port", port).
		Int("toxics", len(toxics)).
		Msg("network fault proxy provisioned")

	return &Handle{Name: name, Host: c.publicHost, Port: port}, nil
}

// Teardown deletes the proxy behind the handle. Deletion failures are logged
// and swallowed; they must never surface as a job failure.
func (c *Controller) Teardown(handle *Handle) {
	if handle == nil {
		return
	}
	if err := c.delete(context.Background(), handle.Name); err != nil {
		// The listener may still be bound, so the port stays reserved.
		c.logger.Warn().Err(err).Str("proxy", handle.Name).Msg("proxy teardown failed")
		return
	}
	c.releasePort(handle.Port)
	c.logger.Info().Str("proxy", handle.Name).Msg("network fault proxy removed")
}

func (c *Controller) addToxic(ctx context.Context, proxyName string, toxic toxicBody) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(toxic).
		Post("/proxies/" + proxyName + "/toxics")
	if err != nil {
		return fmt.Errorf("failed to attach %s toxic to %s: %w", toxic.Type, proxyName, err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("failed to attach %s toxic to %s: toxiproxy returned %d", toxic.Type, proxyName, resp.StatusCode())
	}
	return nil
}

func (c *Controller) delete(ctx context.Context, name string) error {
	resp, err := c.client.R().SetContext(ctx).Delete("/proxies/" + name)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("toxiproxy returned %d deleting %s", resp.StatusCode(), name)
	}
	return nil
}

// allocatePort hands out the next free listen port above the base port,
// scanning round-robin and skipping ports whose proxies are still live.
// With every port in the window occupied it refuses rather than collide.
func (c *Controller) allocatePort() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < portRange; i++ {
		port := c.basePort + (c.next+i)%portRange
		if c.inUse[port] {
			continue
		}
		c.next = (c.next + i + 1) % portRange
		c.inUse[port] = true
		return port, nil
	}
	return 0, fmt.Errorf("all %d proxy listen ports are in use", portRange)
}

func (c *Controller) releasePort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inUse, port)
}
