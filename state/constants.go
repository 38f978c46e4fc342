package state

import "time"

// DefaultInfinity is the cost that represents an unreachable destination
const DefaultInfinity Cost = 16

var (
	DefaultHeartbeat = time.Second
	DefaultCodec     = "proto"
	DefaultCost      = Cost(1)              // cost of links declared through the graph shorthand
	DefaultLatency   = time.Millisecond * 5 // one-way latency of links that do not specify one
	DefaultDuration  = time.Second * 30
	MinTickInterval  = time.Millisecond

	// MaxProbeHops bounds the path of a traceroute probe, so probes caught in a transient loop terminate
	MaxProbeHops = 64
	// ProbeCapacity is the number of probes that may be in flight at once
	ProbeCapacity = uint64(4096)
	// ProbeTimeout is how long the live runtime waits for a probe before it is considered lost
	ProbeTimeout = time.Second * 10

	DispatchWarnThreshold = time.Millisecond * 4
	DispatchBuffer        = 128
)
