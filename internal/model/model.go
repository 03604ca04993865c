package model

import "fmt"

// Protocol is the transport protocol of a decoded packet.
type Protocol uint8

const (
	ProtocolTCP Protocol = 6
	ProtocolUDP Protocol = 17
)

// String returns the literal used when composing group keys.
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "TCP"
	case ProtocolUDP:
		return "UDP"
	default:
		return fmt.Sprintf("PROTO(%d)", uint8(p))
	}
}

// Frame is one link-layer unit delivered by a frame source.
type Frame struct {
	Data    []byte
	Seconds int64 // whole seconds of the capture timestamp
	Micros  int64 // microseconds within the second
}

// PacketInfo holds the fields extracted from a single decodable frame.
// It is never modified after the decoder produces it.
type PacketInfo struct {
	Protocol        Protocol
	SrcIP           string
	SrcPort         uint16
	DstPort         uint16
	TransportLength uint32
	Timestamp       int64 // milliseconds
}

// Observation is one (timestamp, value) point of a series.
type Observation struct {
	Timestamp int64  `json:"timestamp"`
	Value     uint64 `json:"value"`
}

// Mode selects what a packet contributes to each series.
type Mode string

const (
	ModeBytes   Mode = "bytes"
	ModePackets Mode = "packets"
)

// Value returns the contribution of pkt under mode m.
func (m Mode) Value(pkt *PacketInfo) uint64 {
	if m == ModePackets {
		return 1
	}
	return uint64(pkt.TransportLength)
}

// Unit is the human readable unit of totals under mode m.
func (m Mode) Unit() string {
	if m == ModePackets {
		return "packets"
	}
	return "bytes"
}
