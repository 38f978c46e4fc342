package state

import (
	"cmp"
	"fmt"
	"net/netip"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
)

type NodeCfg struct {
	Id       NodeId
	Prefixes []netip.Prefix `yaml:",omitempty"` // addresses probes may target instead of the node id
}

// LinkCfg is a bidirectional link between A and B. Both directions share the same cost and latency.
type LinkCfg struct {
	A       NodeId
	B       NodeId
	Cost    Cost
	Latency time.Duration `yaml:",omitempty"`
}

type LinkOp string

const (
	LinkUp   LinkOp = "up"
	LinkDown LinkOp = "down"
)

// ChangeCfg brings a configured link up or down at a point in time
type ChangeCfg struct {
	At   time.Duration
	A    NodeId
	B    NodeId
	Op   LinkOp
	Cost *Cost `yaml:",omitempty"` // replaces the configured cost when the link comes back up
}

// ProbeCfg sends Count traceroute probes from a node, Every apart, starting at At
type ProbeCfg struct {
	From  NodeId
	To    string // node id or an address covered by a node prefix
	At    time.Duration
	Every time.Duration `yaml:",omitempty"`
	Count int           `yaml:",omitempty"`
}

type Scenario struct {
	Heartbeat time.Duration
	Infinity  Cost
	Codec     string
	Duration  time.Duration
	Tick      time.Duration `yaml:",omitempty"` // how often hosts advance the router clock, defaults to a quarter heartbeat
	Nodes     []NodeCfg
	Links     []LinkCfg   `yaml:",omitempty"`
	Graph     []string    `yaml:",omitempty"` // shorthand for unit cost links, see ParseGraph
	Changes   []ChangeCfg `yaml:",omitempty"`
	Probes    []ProbeCfg  `yaml:",omitempty"`
}

func ReadScenario(path string) (*Scenario, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scn, err := ParseScenario(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scn, nil
}

// ParseScenario decodes, expands and validates a scenario
func ParseScenario(data []byte) (*Scenario, error) {
	var scn Scenario
	err := yaml.UnmarshalWithOptions(data, &scn, yaml.DisallowUnknownField())
	if err != nil {
		return nil, err
	}
	err = ExpandScenario(&scn)
	if err != nil {
		return nil, err
	}
	err = ScenarioValidator(&scn)
	if err != nil {
		return nil, err
	}
	return &scn, nil
}

func WriteScenario(path string, scn *Scenario) error {
	data, err := yaml.Marshal(scn)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExpandScenario fills in defaults and turns the graph shorthand into links
func ExpandScenario(scn *Scenario) error {
	if scn.Heartbeat == 0 {
		scn.Heartbeat = DefaultHeartbeat
	}
	if scn.Infinity == 0 {
		scn.Infinity = DefaultInfinity
	}
	if scn.Codec == "" {
		scn.Codec = DefaultCodec
	}
	if scn.Duration == 0 {
		scn.Duration = DefaultDuration
	}
	if scn.Tick == 0 {
		scn.Tick = max(scn.Heartbeat/4, MinTickInterval)
	}

	if len(scn.Graph) != 0 {
		pairs, err := ParseGraph(scn.Graph, scn.NodeNames())
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			if scn.FindLink(pair.V1, pair.V2) != -1 {
				continue // explicit links take precedence
			}
			scn.Links = append(scn.Links, LinkCfg{
				A:    pair.V1,
				B:    pair.V2,
				Cost: DefaultCost,
			})
		}
		scn.Graph = nil
	}

	for idx := range scn.Links {
		if scn.Links[idx].Latency == 0 {
			scn.Links[idx].Latency = DefaultLatency
		}
	}
	for idx := range scn.Probes {
		if scn.Probes[idx].Count == 0 {
			scn.Probes[idx].Count = 1
		}
	}
	slices.SortStableFunc(scn.Changes, func(a, b ChangeCfg) int {
		return cmp.Compare(a.At, b.At)
	})
	return nil
}

func (s *Scenario) NodeNames() []string {
	names := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		names = append(names, string(n.Id))
	}
	return names
}

func (s *Scenario) IsNode(node NodeId) bool {
	return s.TryGetNode(node) != nil
}

func (s *Scenario) TryGetNode(node NodeId) *NodeCfg {
	idx := slices.IndexFunc(s.Nodes, func(cfg NodeCfg) bool {
		return cfg.Id == node
	})
	if idx == -1 {
		return nil
	}
	return &s.Nodes[idx]
}

// FindLink returns the index of the link between a and b in either direction, or -1
func (s *Scenario) FindLink(a, b NodeId) int {
	return slices.IndexFunc(s.Links, func(l LinkCfg) bool {
		return l.A == a && l.B == b || l.A == b && l.B == a
	})
}

// GetPeers returns every node that curId has a configured link to
func (s *Scenario) GetPeers(curId NodeId) []NodeId {
	peers := make([]NodeId, 0)
	for _, l := range s.Links {
		if l.A == curId {
			peers = append(peers, l.B)
		} else if l.B == curId {
			peers = append(peers, l.A)
		}
	}
	slices.Sort(peers)
	return slices.Compact(peers)
}
