package core

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/encodeous/dvr/protocol"
	"github.com/encodeous/dvr/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// RouterHarness is a Host that records everything a node does
type RouterHarness struct {
	actions []HarnessEvent
	sent    []SentPacket
}

type SentPacket struct {
	Port   state.Port
	Packet *protocol.Packet
}

func (h *RouterHarness) Send(port state.Port, pkt *protocol.Packet) {
	h.sent = append(h.sent, SentPacket{Port: port, Packet: pkt.Copy()})
	h.actions = append(h.actions, MakeEvent("SEND", port, pkt.Kind, pkt.Src, pkt.Dst))
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears the recorded SEND events
func (h *RouterHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}
	h.actions = make([]HarnessEvent, 0)
	h.sent = nil
	return x
}

// GetLogs returns and clears every recorded event
func (h *RouterHarness) GetLogs() HarnessEvents {
	x := h.actions
	h.actions = make([]HarnessEvent, 0)
	h.sent = nil
	return x
}

// Sent returns and clears the packets sent since the last call
func (h *RouterHarness) Sent() []SentPacket {
	x := h.sent
	h.sent = nil
	h.actions = make([]HarnessEvent, 0)
	return x
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func NewTestNode(t *testing.T, id state.NodeId) (*Node, *RouterHarness) {
	t.Helper()
	h := &RouterHarness{}
	n, err := NewNode(NodeCfg{Id: id, Heartbeat: time.Second}, h)
	require.NoError(t, err)
	return n, h
}

// Advertise delivers vec to n on port as if it was advertised by from
func Advertise(t *testing.T, n *Node, port state.Port, from state.NodeId, vec state.Vector) {
	t.Helper()
	content, err := n.cfg.Codec.Marshal(vec)
	require.NoError(t, err)
	require.NoError(t, n.HandlePacket(port, protocol.NewRoutingPacket(from, content)))
}

// Exchange delivers every packet in sent to the peer behind each port
func Exchange(t *testing.T, sent []SentPacket, peer func(port state.Port) (*Node, state.Port)) {
	t.Helper()
	for _, s := range sent {
		to, toPort := peer(s.Port)
		require.NoError(t, to.HandlePacket(toPort, s.Packet))
	}
}

// checkInvariants verifies the properties that must hold after every operation
func checkInvariants(t *testing.T, n *Node) {
	t.Helper()
	vec := n.Vector()
	fwd := n.ForwardTable()
	links := n.Links()

	require.Equal(t, state.Cost(0), vec[n.Id()], "self distance")
	require.NotContains(t, fwd, n.Id())
	for dst, cost := range vec {
		require.GreaterOrEqual(t, cost, state.Cost(0))
		require.LessOrEqual(t, cost, n.Infinity(), "cost to %s", dst)
		if dst != n.Id() {
			require.Contains(t, fwd, dst)
		}
	}
	for dst, port := range fwd {
		require.Contains(t, vec, dst)
		require.Contains(t, links, port)
	}
}
