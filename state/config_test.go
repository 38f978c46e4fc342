package state

import (
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScenario = `
heartbeat: 200ms
codec: json
nodes:
  - id: a
    prefixes: [10.0.0.1/32]
  - id: b
  - id: c
links:
  - {a: a, b: b, cost: 1, latency: 10ms}
  - {a: b, b: c, cost: 1}
  - {a: a, b: c, cost: 5}
changes:
  - {at: 20s, a: a, b: b, op: up, cost: 2}
  - {at: 10s, a: a, b: b, op: down}
probes:
  - {from: c, to: 10.0.0.1, at: 5s, every: 1s, count: 3}
`

func TestParseScenario(t *testing.T) {
	scn, err := ParseScenario([]byte(sampleScenario))
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, scn.Heartbeat)
	assert.Equal(t, 50*time.Millisecond, scn.Tick)
	assert.Equal(t, DefaultInfinity, scn.Infinity)
	assert.Equal(t, "json", scn.Codec)
	assert.Equal(t, DefaultDuration, scn.Duration)
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.1/32")}, scn.Nodes[0].Prefixes)

	require.Len(t, scn.Links, 3)
	assert.Equal(t, 10*time.Millisecond, scn.Links[0].Latency)
	assert.Equal(t, DefaultLatency, scn.Links[1].Latency)

	// changes are ordered by time
	require.Len(t, scn.Changes, 2)
	assert.Equal(t, LinkDown, scn.Changes[0].Op)
	assert.Nil(t, scn.Changes[0].Cost)
	assert.Equal(t, LinkUp, scn.Changes[1].Op)
	require.NotNil(t, scn.Changes[1].Cost)
	assert.Equal(t, Cost(2), *scn.Changes[1].Cost)

	assert.Equal(t, 3, scn.Probes[0].Count)
	assert.Equal(t, []NodeId{"b", "c"}, scn.GetPeers("a"))
}

func TestParseScenario_Graph(t *testing.T) {
	scn, err := ParseScenario([]byte(`
nodes: [{id: a}, {id: b}, {id: c}]
links:
  - {a: b, b: a, cost: 7}
graph:
  - "all = a, b, c"
  - "all, all"
`))
	require.NoError(t, err)
	assert.Nil(t, scn.Graph)
	require.Len(t, scn.Links, 3)
	assert.Equal(t, Cost(7), scn.Links[scn.FindLink("a", "b")].Cost)
	assert.Equal(t, DefaultCost, scn.Links[scn.FindLink("c", "a")].Cost)
	assert.Equal(t, DefaultCost, scn.Links[scn.FindLink("b", "c")].Cost)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
nodes: [{id: a}]
hearbeat: 1s
`))
	assert.Error(t, err)
}

func TestParseScenario_Invalid(t *testing.T) {
	_, err := ParseScenario([]byte(`
nodes: [{id: a}, {id: b}]
links:
  - {a: a, b: b, cost: abcd}
`))
	assert.Error(t, err)

	_, err = ParseScenario([]byte(`
nodes: [{id: A}]
`))
	assert.ErrorContains(t, err, "is not a valid name")
}

func TestWriteScenario(t *testing.T) {
	scn, err := ParseScenario([]byte(sampleScenario))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, WriteScenario(path, scn))
	back, err := ReadScenario(path)
	require.NoError(t, err)
	assert.EqualValues(t, scn, back)
}
