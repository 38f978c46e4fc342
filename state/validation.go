package state

import (
	"fmt"
	"net/netip"
	"regexp"
	"slices"
)

var namePattern = regexp.MustCompile("^[0-9a-z._-]+$")

var codecNames = []string{"proto", "json"}

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func CostValidator(c Cost, inf Cost) error {
	if c < 0 {
		return fmt.Errorf("%d: %w", c, ErrNegativeCost)
	}
	if c > inf {
		return fmt.Errorf("cost %d exceeds infinity (%d)", c, inf)
	}
	return nil
}

func ScenarioValidator(scn *Scenario) error {
	if scn.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat must be positive, got %s", scn.Heartbeat)
	}
	if scn.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", scn.Tick)
	}
	if scn.Infinity <= 0 {
		return fmt.Errorf("infinity must be positive, got %d", scn.Infinity)
	}
	if !slices.Contains(codecNames, scn.Codec) {
		return fmt.Errorf("unknown codec %q, expected one of %v", scn.Codec, codecNames)
	}
	if len(scn.Nodes) == 0 {
		return fmt.Errorf("scenario has no nodes")
	}

	seen := make(map[NodeId]struct{})
	prefixes := make(map[netip.Prefix]NodeId)
	for _, node := range scn.Nodes {
		err := NameValidator(string(node.Id))
		if err != nil {
			return err
		}
		if _, ok := seen[node.Id]; ok {
			return fmt.Errorf("duplicate node: %s", node.Id)
		}
		seen[node.Id] = struct{}{}
		for _, prefix := range node.Prefixes {
			if !prefix.IsValid() {
				return fmt.Errorf("node %s has an invalid prefix", node.Id)
			}
			if owner, ok := prefixes[prefix.Masked()]; ok {
				return fmt.Errorf("prefix %s is assigned to both %s and %s", prefix, owner, node.Id)
			}
			prefixes[prefix.Masked()] = node.Id
		}
	}

	edges := make([]Pair[NodeId, NodeId], 0)
	for _, link := range scn.Links {
		if err := linkEndpointsValidator(scn, link.A, link.B); err != nil {
			return err
		}
		edge := MakeSortedPair(link.A, link.B)
		if slices.Contains(edges, edge) {
			return fmt.Errorf("duplicate link found: %s, %s", edge.V1, edge.V2)
		}
		edges = append(edges, edge)
		if err := CostValidator(link.Cost, scn.Infinity); err != nil {
			return fmt.Errorf("link %s-%s: %w", link.A, link.B, err)
		}
		if link.Latency < 0 {
			return fmt.Errorf("link %s-%s: latency must not be negative", link.A, link.B)
		}
	}

	for _, change := range scn.Changes {
		if change.At < 0 {
			return fmt.Errorf("change of %s-%s happens before the scenario starts", change.A, change.B)
		}
		if scn.FindLink(change.A, change.B) == -1 {
			return fmt.Errorf("change references undefined link %s-%s", change.A, change.B)
		}
		switch change.Op {
		case LinkUp:
			if change.Cost != nil {
				if err := CostValidator(*change.Cost, scn.Infinity); err != nil {
					return fmt.Errorf("change of %s-%s: %w", change.A, change.B, err)
				}
			}
		case LinkDown:
			if change.Cost != nil {
				return fmt.Errorf("change of %s-%s: a link going down has no cost", change.A, change.B)
			}
		default:
			return fmt.Errorf("change of %s-%s: unknown op %q", change.A, change.B, change.Op)
		}
	}

	for _, probe := range scn.Probes {
		if !scn.IsNode(probe.From) {
			return fmt.Errorf("probe source %s: %w", probe.From, ErrUnknownNode)
		}
		if !probeTargetValid(scn, probe.To) {
			return fmt.Errorf("probe target %s is neither a node nor a configured address", probe.To)
		}
		if probe.At < 0 || probe.Every < 0 || probe.Count < 0 {
			return fmt.Errorf("probe %s -> %s: timings and count must not be negative", probe.From, probe.To)
		}
		if probe.Count > 1 && probe.Every == 0 {
			return fmt.Errorf("probe %s -> %s: repeated probes need an interval", probe.From, probe.To)
		}
	}
	return nil
}

func linkEndpointsValidator(scn *Scenario, a, b NodeId) error {
	if !scn.IsNode(a) {
		return fmt.Errorf("node %s not defined", a)
	}
	if !scn.IsNode(b) {
		return fmt.Errorf("node %s not defined", b)
	}
	if a == b {
		return fmt.Errorf("node %s must not link to itself", a)
	}
	return nil
}

func probeTargetValid(scn *Scenario, target string) bool {
	if scn.IsNode(NodeId(target)) {
		return true
	}
	addr, err := netip.ParseAddr(target)
	if err != nil {
		return false
	}
	for _, node := range scn.Nodes {
		for _, prefix := range node.Prefixes {
			if prefix.Contains(addr) {
				return true
			}
		}
	}
	return false
}
