package core

import (
	"github.com/encodeous/dvr/perf"
	"github.com/encodeous/dvr/protocol"
)

// broadcast sends the full distance vector out of every active port. It does not modify the router.
func (n *Node) broadcast(event RouterEvent) {
	ports := n.rs.Ports()
	if len(ports) == 0 {
		return
	}
	content, err := n.cfg.Codec.Marshal(n.rs.Vector)
	if err != nil {
		n.host.Log(EncodeFailed, "failed to encode vector", "err", err)
		return
	}
	n.host.Log(event, "broadcasting vector", "ports", len(ports), "bytes", len(content))
	for _, port := range ports {
		perf.AdvertsSent.Add(1)
		n.host.Send(port, protocol.NewRoutingPacket(n.cfg.Id, content))
	}
}
