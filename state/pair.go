package state

import (
	"cmp"
	"slices"
)

type Pair[Ty1, Ty2 any] struct {
	V1 Ty1
	V2 Ty2
}

func MakeSortedPair[T cmp.Ordered](a, b T) Pair[T, T] {
	if b < a {
		a, b = b, a
	}
	return Pair[T, T]{a, b}
}

// SortPairs orders pairs by V1, then by V2
func SortPairs[T1, T2 cmp.Ordered](pairs []Pair[T1, T2]) {
	slices.SortFunc(pairs, func(a, b Pair[T1, T2]) int {
		return cmp.Or(cmp.Compare(a.V1, b.V1), cmp.Compare(a.V2, b.V2))
	})
}
