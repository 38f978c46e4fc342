package protocol

import (
	"errors"
	"fmt"
	"math"

	"github.com/encodeous/dvr/state"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned when an advertisement payload cannot be decoded
var ErrMalformed = errors.New("malformed advertisement")

// Codec converts a distance vector to and from the payload of a routing packet
type Codec interface {
	Name() string
	Marshal(v state.Vector) ([]byte, error)
	Unmarshal(data []byte) (state.Vector, error)
}

func CodecByName(name string) (Codec, error) {
	switch name {
	case "proto", "":
		return ProtoCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// ProtoCodec encodes a vector in protobuf wire format, as the message
//
//	message Vector {
//	  message Entry {
//	    string dst = 1;
//	    uint32 cost = 2;
//	  }
//	  repeated Entry entries = 1;
//	}
//
// Entries are written in destination order, so equal vectors encode to equal bytes.
type ProtoCodec struct{}

const (
	vectorEntries protowire.Number = 1
	entryDst      protowire.Number = 1
	entryCost     protowire.Number = 2
)

func (ProtoCodec) Name() string {
	return "proto"
}

func (ProtoCodec) Marshal(v state.Vector) ([]byte, error) {
	var out, entry []byte
	for _, dst := range v.Destinations() {
		cost := v[dst]
		if cost < 0 || int64(cost) > math.MaxUint32 {
			return nil, fmt.Errorf("cannot encode cost %d for %s", cost, dst)
		}
		entry = entry[:0]
		entry = protowire.AppendTag(entry, entryDst, protowire.BytesType)
		entry = protowire.AppendString(entry, string(dst))
		entry = protowire.AppendTag(entry, entryCost, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(cost))

		out = protowire.AppendTag(out, vectorEntries, protowire.BytesType)
		out = protowire.AppendBytes(out, entry)
	}
	return out, nil
}

func (ProtoCodec) Unmarshal(data []byte) (state.Vector, error) {
	v := make(state.Vector)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]
		if num != vectorEntries {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		if typ != protowire.BytesType {
			return nil, fmt.Errorf("%w: entry has wire type %d", ErrMalformed, typ)
		}
		entry, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]
		dst, cost, err := unmarshalEntry(entry)
		if err != nil {
			return nil, err
		}
		v[dst] = cost
	}
	return v, nil
}

func unmarshalEntry(b []byte) (state.NodeId, state.Cost, error) {
	var dst state.NodeId
	var cost uint64
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == entryDst && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return "", 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			dst = state.NodeId(s)
			b = b[n:]
		case num == entryCost && typ == protowire.VarintType:
			c, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return "", 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			cost = c
			b = b[n:]
		case num == entryDst || num == entryCost:
			return "", 0, fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, num, typ)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", 0, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if dst == "" {
		return "", 0, fmt.Errorf("%w: entry without destination", ErrMalformed)
	}
	if cost > math.MaxUint32 {
		return "", 0, fmt.Errorf("%w: cost %d of %s out of range", ErrMalformed, cost, dst)
	}
	return dst, state.Cost(cost), nil
}
