package configs

import "time"

// ProxyConfig wires the network-fault controller to a toxiproxy daemon.
// ListenHost is the interface the per-job proxies bind on; PublicHost is the
// address the sandboxed container can reach them at.
type ProxyConfig struct {
	APIURL     string
	ListenHost string
	PublicHost string
	BasePort   int
}

type SandboxConfig struct {
	StagingDirectory string
}

// RegistryConfig controls the job store. Clock is injectable so the sweep
// can be tested deterministically; nil means time.Now.
type RegistryConfig struct {
	Retention time.Duration
	Clock     func() time.Time
}
