package state

import "errors"

var (
	ErrNegativeCost = errors.New("cost must not be negative")
	ErrUnknownNode  = errors.New("unknown node")
)
