package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortPairs(t *testing.T) {
	pairs := []Pair[NodeId, Port]{
		{V1: "c", V2: 10},
		{V1: "a", V2: 20},
		{V1: "a", V2: 5},
		{V1: "b", V2: 15},
	}
	SortPairs(pairs)
	assert.Equal(t, []Pair[NodeId, Port]{
		{V1: "a", V2: 5},
		{V1: "a", V2: 20},
		{V1: "b", V2: 15},
		{V1: "c", V2: 10},
	}, pairs)
}

func TestMakeSortedPair(t *testing.T) {
	assert.Equal(t, Pair[NodeId, NodeId]{"a", "b"}, MakeSortedPair[NodeId]("b", "a"))
	assert.Equal(t, Pair[NodeId, NodeId]{"a", "b"}, MakeSortedPair[NodeId]("a", "b"))
}
