package probe

import (
	"fmt"
	"strings"
	"time"

	"github.com/encodeous/dvr/state"
	"github.com/google/uuid"
)

type Status int

const (
	Pending Status = iota
	Delivered
	Dropped
	// Looped probes exceeded the hop limit
	Looped
	// Lost probes never finished
	Lost
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Delivered:
		return "delivered"
	case Dropped:
		return "dropped"
	case Looped:
		return "looped"
	case Lost:
		return "lost"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Result struct {
	Id   uuid.UUID
	From state.NodeId
	To   state.NodeId
	// Path lists every node the probe visited, starting at From
	Path    []state.NodeId
	Status  Status
	Sent    time.Duration
	Arrived time.Duration
}

// Latency is the one-way delay of a delivered probe
func (r Result) Latency() time.Duration {
	if r.Status != Delivered {
		return 0
	}
	return r.Arrived - r.Sent
}

func (r Result) Hops() int {
	return max(len(r.Path)-1, 0)
}

func (r Result) String() string {
	path := make([]string, 0, len(r.Path))
	for _, n := range r.Path {
		path = append(path, string(n))
	}
	s := fmt.Sprintf("%s -> %s at %s: %s via %s", r.From, r.To, r.Sent, r.Status, strings.Join(path, " > "))
	if r.Status == Delivered {
		s += fmt.Sprintf(" (%d hops, %s)", r.Hops(), r.Latency())
	}
	return s
}

type Summary struct {
	Sent      int
	Delivered int
	Dropped   int
	Looped    int
	// Lost includes probes still in flight and probes pushed out of the in-flight table
	Lost int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d sent, %d delivered, %d dropped, %d looped, %d lost", s.Sent, s.Delivered, s.Dropped, s.Looped, s.Lost)
}
