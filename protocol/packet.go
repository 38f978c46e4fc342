package protocol

import (
	"fmt"
	"slices"

	"github.com/encodeous/dvr/state"
)

type Kind uint8

const (
	// Routing packets carry an encoded distance vector and are addressed to every neighbour
	Routing Kind = iota
	// Traceroute packets carry an opaque payload to a concrete destination
	Traceroute
)

func (k Kind) String() string {
	switch k {
	case Routing:
		return "routing"
	case Traceroute:
		return "traceroute"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type Packet struct {
	Kind    Kind
	Src     state.NodeId
	Dst     state.NodeId // empty for routing packets
	Content []byte
}

func (p *Packet) IsTraceroute() bool {
	return p.Kind == Traceroute
}

// Copy returns a packet that shares no memory with p
func (p *Packet) Copy() *Packet {
	c := *p
	c.Content = slices.Clone(p.Content)
	return &c
}

func (p *Packet) String() string {
	if p.IsTraceroute() {
		return fmt.Sprintf("(%s: %s -> %s, %d bytes)", p.Kind, p.Src, p.Dst, len(p.Content))
	}
	return fmt.Sprintf("(%s: from %s, %d bytes)", p.Kind, p.Src, len(p.Content))
}

func NewRoutingPacket(src state.NodeId, content []byte) *Packet {
	return &Packet{
		Kind:    Routing,
		Src:     src,
		Content: content,
	}
}

func NewTraceroutePacket(src, dst state.NodeId, content []byte) *Packet {
	return &Packet{
		Kind:    Traceroute,
		Src:     src,
		Dst:     dst,
		Content: content,
	}
}
