package models

// Scenario is the operator-supplied fault configuration attached to a job.
// The first four fields drive the network-fault proxy, the rest drive source
// injection. Field declaration order is the injection ordering contract.
type Scenario struct {
	NetworkLatencyMs   int    `json:"networkLatencyMs,omitempty"`
	BandwidthKbps      int    `json:"bandwidthKbps,omitempty"`
	TimeoutMs          int    `json:"timeoutMs,omitempty"`
	Upstream           string `json:"upstream,omitempty"`
	SimulateCrash      bool   `json:"simulateCrash,omitempty"`
	SimulateHighCPU    bool   `json:"simulateHighCpu,omitempty"`
	SimulateMemoryLeak bool   `json:"simulateMemoryLeak,omitempty"`
	ArtificialDelayMs  int    `json:"artificialDelayMs,omitempty"`
}

// NeedsNetworkFaults reports whether the scenario asks for a fault-injecting
// proxy in front of the sandboxed code's outbound traffic.
func (s Scenario) NeedsNetworkFaults() bool {
	return s.NetworkLatencyMs > 0 || s.BandwidthKbps > 0 || s.TimeoutMs > 0 || s.Upstream != ""
}

// IsEmpty reports whether no fault flag at all is set; injection must be the
// identity transform in that case.
func (s Scenario) IsEmpty() bool {
	return s == Scenario{}
}
