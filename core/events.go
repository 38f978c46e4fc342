package core

import "fmt"

type RouterEvent int

// trace events

const (
	LinkAdded RouterEvent = iota
	LinkRemoved
	RoutesChanged
	RoutesComputed
	VectorBroadcast
	HeartbeatBroadcast
	PacketForwarded
	PacketDropped
	PacketDelivered
	AdvertisementAccepted
)

// warn events

const (
	UnknownPort RouterEvent = iota + 1000
	MalformedAdvertisement
	RejectedLink
	EncodeFailed
	LinkCapped
)

var eventNames = map[RouterEvent]string{
	LinkAdded:              "LinkAdded",
	LinkRemoved:            "LinkRemoved",
	RoutesChanged:          "RoutesChanged",
	RoutesComputed:         "RoutesComputed",
	VectorBroadcast:        "VectorBroadcast",
	HeartbeatBroadcast:     "HeartbeatBroadcast",
	PacketForwarded:        "PacketForwarded",
	PacketDropped:          "PacketDropped",
	PacketDelivered:        "PacketDelivered",
	AdvertisementAccepted:  "AdvertisementAccepted",
	UnknownPort:            "UnknownPort",
	MalformedAdvertisement: "MalformedAdvertisement",
	RejectedLink:           "RejectedLink",
	EncodeFailed:           "EncodeFailed",
	LinkCapped:             "LinkCapped",
}

func (e RouterEvent) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("RouterEvent(%d)", int(e))
}

// IsWarning reports whether the event signals a condition the operator should look at
func (e RouterEvent) IsWarning() bool {
	return e >= 1000
}
