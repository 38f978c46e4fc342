package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/encodeous/dvr/state"
)

// JSONCodec encodes a vector as a JSON object of destination to cost
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return "json"
}

func (JSONCodec) Marshal(v state.Vector) ([]byte, error) {
	return json.Marshal(map[state.NodeId]state.Cost(v))
}

func (JSONCodec) Unmarshal(data []byte) (state.Vector, error) {
	var v map[state.NodeId]state.Cost
	err := json.Unmarshal(data, &v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	for dst, cost := range v {
		if dst == "" {
			return nil, fmt.Errorf("%w: entry without destination", ErrMalformed)
		}
		if cost < 0 {
			return nil, fmt.Errorf("%w: negative cost %d for %s", ErrMalformed, cost, dst)
		}
	}
	return v, nil
}
