package state

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameValidator_Valid(t *testing.T) {
	assert.NoError(t, NameValidator("1"))
	assert.NoError(t, NameValidator("ab_cd"))
	assert.NoError(t, NameValidator("abcd-a.com"))
}

func TestNameValidator_Invalid(t *testing.T) {
	assert.Error(t, NameValidator("1A"))
	assert.Error(t, NameValidator("node name"))
	assert.Error(t, NameValidator(""))
	assert.Error(t, NameValidator("\t"))
	assert.Error(t, NameValidator("abcd-a.com\\hi"))
	assert.Error(t, NameValidator(strings.Repeat("a", 200)))
}

func TestCostValidator(t *testing.T) {
	assert.NoError(t, CostValidator(0, 16))
	assert.NoError(t, CostValidator(16, 16))
	assert.ErrorIs(t, CostValidator(-1, 16), ErrNegativeCost)
	assert.ErrorContains(t, CostValidator(17, 16), "exceeds infinity")
}

func validScenario() *Scenario {
	scn := &Scenario{
		Nodes: []NodeCfg{
			{Id: "a", Prefixes: []netip.Prefix{netip.MustParsePrefix("10.0.0.1/32")}},
			{Id: "b"},
			{Id: "c"},
		},
		Links: []LinkCfg{
			{A: "a", B: "b", Cost: 1},
			{A: "b", B: "c", Cost: 1},
		},
	}
	_ = ExpandScenario(scn)
	return scn
}

func TestScenarioValidator_Valid(t *testing.T) {
	assert.NoError(t, ScenarioValidator(validScenario()))
}

func TestScenarioValidator_Invalid(t *testing.T) {
	cases := map[string]func(s *Scenario){
		"duplicate node":   func(s *Scenario) { s.Nodes = append(s.Nodes, NodeCfg{Id: "a"}) },
		"not defined":      func(s *Scenario) { s.Links = append(s.Links, LinkCfg{A: "a", B: "z"}) },
		"itself":           func(s *Scenario) { s.Links = append(s.Links, LinkCfg{A: "a", B: "a"}) },
		"duplicate link":   func(s *Scenario) { s.Links = append(s.Links, LinkCfg{A: "b", B: "a"}) },
		"must not be":      func(s *Scenario) { s.Links[0].Cost = -3 },
		"unknown codec":    func(s *Scenario) { s.Codec = "xml" },
		"undefined link":   func(s *Scenario) { s.Changes = []ChangeCfg{{A: "a", B: "c", Op: LinkDown}} },
		"unknown op":       func(s *Scenario) { s.Changes = []ChangeCfg{{A: "a", B: "b", Op: "sideways"}} },
		"has no cost":      func(s *Scenario) { c := Cost(2); s.Changes = []ChangeCfg{{A: "a", B: "b", Op: LinkDown, Cost: &c}} },
		"unknown node":     func(s *Scenario) { s.Probes = []ProbeCfg{{From: "z", To: "a", Count: 1}} },
		"neither":          func(s *Scenario) { s.Probes = []ProbeCfg{{From: "a", To: "10.9.9.9", Count: 1}} },
		"need an interval": func(s *Scenario) { s.Probes = []ProbeCfg{{From: "a", To: "c", Count: 3}} },
		"assigned to both": func(s *Scenario) {
			s.Nodes[1].Prefixes = []netip.Prefix{netip.MustParsePrefix("10.0.0.1/32")}
		},
	}
	for msg, mutate := range cases {
		t.Run(msg, func(t *testing.T) {
			scn := validScenario()
			mutate(scn)
			assert.ErrorContains(t, ScenarioValidator(scn), msg)
		})
	}
}

func TestScenarioValidator_ProbeByAddress(t *testing.T) {
	scn := validScenario()
	scn.Probes = []ProbeCfg{{From: "c", To: "10.0.0.1", Count: 1}}
	assert.NoError(t, ScenarioValidator(scn))
}
