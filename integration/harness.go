//go:build integration

package integration

import (
	"context"
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"github.com/encodeous/dvr/core"
	"github.com/encodeous/dvr/live"
	"github.com/encodeous/dvr/sim"
	"github.com/encodeous/dvr/state"
	"github.com/stretchr/testify/require"
)

type Signal chan bool

func NewSignal() Signal {
	return make(chan bool)
}
func (s Signal) Trigger() {
	select {
	case <-s:
	default:
		close(s)
	}
}
func (s Signal) Triggered() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}
func (s Signal) Wait() {
	<-s
}

// VirtualHarness builds a scenario piece by piece, then runs it either live or in simulation
type VirtualHarness struct {
	Scenario state.Scenario
	Log      *slog.Logger
}

type LinkBuilder struct {
	vh  *VirtualHarness
	idx int
}

func NewHarness(heartbeat time.Duration) *VirtualHarness {
	return &VirtualHarness{
		Scenario: state.Scenario{
			Heartbeat: heartbeat,
			Duration:  heartbeat * 20,
		},
		Log: slog.New(slog.DiscardHandler),
	}
}

func (vh *VirtualHarness) NewNode(id state.NodeId, prefixes ...string) {
	cfg := state.NodeCfg{Id: id}
	for _, p := range prefixes {
		cfg.Prefixes = append(cfg.Prefixes, netip.MustParsePrefix(p))
	}
	vh.Scenario.Nodes = append(vh.Scenario.Nodes, cfg)
}

func (vh *VirtualHarness) AddLink(a, b state.NodeId, cost state.Cost) *LinkBuilder {
	vh.Scenario.Links = append(vh.Scenario.Links, state.LinkCfg{A: a, B: b, Cost: cost})
	return &LinkBuilder{vh, len(vh.Scenario.Links) - 1}
}

func (l *LinkBuilder) WithLatency(latency time.Duration) *LinkBuilder {
	l.vh.Scenario.Links[l.idx].Latency = latency
	return l
}

// At schedules a change of the link. A nil cost brings it up with its configured cost.
func (l *LinkBuilder) At(at time.Duration, op state.LinkOp, cost *state.Cost) *LinkBuilder {
	link := l.vh.Scenario.Links[l.idx]
	l.vh.Scenario.Changes = append(l.vh.Scenario.Changes, state.ChangeCfg{
		At:   at,
		A:    link.A,
		B:    link.B,
		Op:   op,
		Cost: cost,
	})
	return l
}

func (vh *VirtualHarness) Probe(from state.NodeId, to string, at time.Duration, count int) {
	vh.Scenario.Probes = append(vh.Scenario.Probes, state.ProbeCfg{
		From:  from,
		To:    to,
		At:    at,
		Every: vh.Scenario.Heartbeat / 2,
		Count: count,
	})
}

func (vh *VirtualHarness) scenario(t *testing.T) *state.Scenario {
	scn := vh.Scenario
	scn.Nodes = append([]state.NodeCfg(nil), vh.Scenario.Nodes...)
	scn.Links = append([]state.LinkCfg(nil), vh.Scenario.Links...)
	scn.Changes = append([]state.ChangeCfg(nil), vh.Scenario.Changes...)
	scn.Probes = append([]state.ProbeCfg(nil), vh.Scenario.Probes...)
	require.NoError(t, state.ExpandScenario(&scn))
	require.NoError(t, state.ScenarioValidator(&scn))
	return &scn
}

// Simulate runs the scenario to its end in virtual time
func (vh *VirtualHarness) Simulate(t *testing.T) *sim.Simulator {
	scn := vh.scenario(t)
	s, err := sim.New(scn, vh.Log)
	require.NoError(t, err)
	require.NoError(t, s.Run(scn.Duration))
	return s
}

// Start runs the scenario live. The network is stopped when the test ends.
func (vh *VirtualHarness) Start(t *testing.T) *live.Network {
	n, err := live.Start(context.Background(), vh.scenario(t), vh.Log)
	require.NoError(t, err)
	return n
}

func Stop(n *live.Network) {
	n.Stop()
	_ = n.Wait()
}

func Vectors(snaps []core.Snapshot) map[state.NodeId]state.Vector {
	res := make(map[state.NodeId]state.Vector)
	for _, s := range snaps {
		res[s.Id] = s.Vector
	}
	return res
}

// LiveVectors returns nil if the network cannot be read
func LiveVectors(n *live.Network) map[state.NodeId]state.Vector {
	snaps, err := n.Snapshot()
	if err != nil {
		return nil
	}
	return Vectors(snaps)
}
