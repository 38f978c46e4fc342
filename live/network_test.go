package live

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/encodeous/dvr/core"
	"github.com/encodeous/dvr/probe"
	"github.com/encodeous/dvr/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startNetwork(t *testing.T, scenario string) *Network {
	t.Helper()
	scn, err := state.ParseScenario([]byte(scenario))
	require.NoError(t, err)
	n, err := Start(context.Background(), scn, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return n
}

func stopNetwork(n *Network) {
	n.Stop()
	_ = n.Wait()
}

func vectors(n *Network) map[state.NodeId]state.Vector {
	snap, err := n.Snapshot()
	if err != nil {
		return nil
	}
	res := make(map[state.NodeId]state.Vector)
	for _, s := range snap {
		res[s.Id] = s.Vector
	}
	return res
}

const line = `
heartbeat: 100ms
nodes: [{id: a}, {id: b}, {id: c, prefixes: [10.0.0.3/32]}]
links:
  - {a: a, b: b, cost: 1, latency: 2ms}
  - {a: b, b: c, cost: 1, latency: 2ms}
`

func TestNetworkConverges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n := startNetwork(t, line)
	defer stopNetwork(n)
	want := map[state.NodeId]state.Vector{
		"a": {"a": 0, "b": 1, "c": 2},
		"b": {"a": 1, "b": 0, "c": 1},
		"c": {"a": 2, "b": 1, "c": 0},
	}
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, vectors(n))
	}, 5*time.Second, 20*time.Millisecond)

	out, err := n.Inspect("a")
	require.NoError(t, err)
	assert.Contains(t, out, " - c via port 1 (b)")
	_, err = n.Inspect("z")
	assert.ErrorIs(t, err, state.ErrUnknownNode)

	n.Stop()
	assert.NoError(t, n.Wait())
	<-n.Done()

	_, err = n.Snapshot()
	assert.Error(t, err)
}

func TestNetworkLinkChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n := startNetwork(t, `
heartbeat: 100ms
nodes: [{id: a}, {id: b}, {id: c}]
links:
  - {a: a, b: b, cost: 1, latency: 1ms}
  - {a: a, b: c, cost: 5, latency: 1ms}
  - {a: b, b: c, cost: 1, latency: 1ms}
changes:
  - {at: 300ms, a: a, b: b, op: down}
`)
	defer stopNetwork(n)
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(state.Vector{"a": 0, "b": 6, "c": 5}, vectors(n)["a"])
	}, 5*time.Second, 20*time.Millisecond)

	snap, err := n.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, core.Snapshot{
		Id:      "a",
		Vector:  state.Vector{"a": 0, "b": 6, "c": 5},
		Forward: state.ForwardTable{"b": 2, "c": 2},
	}, snap[0])
}

func TestNetworkSameInstantChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n := startNetwork(t, `
heartbeat: 50ms
nodes: [{id: a}, {id: b}, {id: c}, {id: d}]
links:
  - {a: a, b: b, cost: 1, latency: 1ms}
  - {a: c, b: d, cost: 1, latency: 1ms}
changes:
  - {at: 200ms, a: a, b: b, op: up, cost: 3}
  - {at: 200ms, a: a, b: b, op: down}
  - {at: 200ms, a: c, b: d, op: down}
  - {at: 200ms, a: c, b: d, op: up, cost: 3}
`)
	defer stopNetwork(n)
	want := map[state.NodeId]state.Vector{
		"a": {"a": 0},
		"b": {"b": 0},
		"c": {"c": 0, "d": 3},
		"d": {"c": 3, "d": 0},
	}
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, vectors(n))
	}, 5*time.Second, 20*time.Millisecond)

	// several heartbeats later nothing has come back through the removed link
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, want, vectors(n))
	out, err := n.Inspect("a")
	require.NoError(t, err)
	assert.Contains(t, out, "Links:\n (none)")
}

func TestNetworkProbes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n := startNetwork(t, line+`
probes:
  - {from: a, to: 10.0.0.3, at: 500ms, every: 50ms, count: 3}
  - {from: b, to: b, at: 100ms}
`)
	defer stopNetwork(n)
	require.Eventually(t, func() bool {
		return n.ProbeSummary().Delivered == 4
	}, 5*time.Second, 20*time.Millisecond)

	res := n.Results()
	require.Len(t, res, 4)
	assert.Equal(t, state.NodeId("b"), res[0].From)
	for _, r := range res[1:] {
		assert.Equal(t, probe.Delivered, r.Status)
		assert.Equal(t, []state.NodeId{"a", "b", "c"}, r.Path)
		assert.GreaterOrEqual(t, r.Latency(), 4*time.Millisecond)
	}
}

func TestNetworkStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scn, err := state.ParseScenario([]byte(line))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	n, err := Start(ctx, scn, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	cancel()
	assert.NoError(t, n.Wait())
}

func TestNodeFailureStopsNetwork(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	n := startNetwork(t, line)
	defer stopNetwork(n)
	boom := errors.New("boom")
	n.nodes["b"].Dispatch(func(s *state.State) error {
		return boom
	})
	assert.ErrorIs(t, n.Wait(), boom)
	select {
	case <-n.Done():
	default:
		t.Fatal("network still running after a node failed")
	}
}
