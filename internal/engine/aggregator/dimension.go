package aggregator

import (
	"PcapSpectra/internal/model"
	"fmt"
	"strconv"
)

// Dimension identifies one of the six independent groupings of traffic.
type Dimension int

const (
	BySrcPort Dimension = iota
	ByDstPort
	BySrcIP
	ByFlow
	BySrcIPPort
	BySrcIPFlow

	numDimensions
)

// Dimensions lists every grouping in report order.
var Dimensions = [numDimensions]Dimension{BySrcPort, ByDstPort, BySrcIP, ByFlow, BySrcIPPort, BySrcIPFlow}

var dimensionNames = [numDimensions]string{
	"by_src_port",
	"by_dst_port",
	"by_src_ip",
	"by_flow",
	"by_src_ip_port",
	"by_src_ip_flow",
}

var dimensionTitles = [numDimensions]string{
	"By source port",
	"By destination port",
	"By source IP",
	"By flow",
	"By source IP & port",
	"By source IP & flow",
}

// Name is the stable identifier used in reports and API paths.
func (d Dimension) Name() string {
	if d < 0 || d >= numDimensions {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// Title is the human readable heading of the dimension.
func (d Dimension) Title() string {
	if d < 0 || d >= numDimensions {
		return d.Name()
	}
	return dimensionTitles[d]
}

func (d Dimension) String() string {
	return d.Name()
}

// ParseDimension resolves a dimension by its Name.
func ParseDimension(name string) (Dimension, bool) {
	for i, n := range dimensionNames {
		if n == name {
			return Dimension(i), true
		}
	}
	return 0, false
}

// Key composes the group key of pkt within dimension d.
func (d Dimension) Key(pkt *model.PacketInfo) string {
	proto := pkt.Protocol.String()
	srcPort := strconv.Itoa(int(pkt.SrcPort))
	dstPort := strconv.Itoa(int(pkt.DstPort))

	switch d {
	case BySrcPort:
		return proto + "/" + srcPort
	case ByDstPort:
		return proto + "/" + dstPort
	case BySrcIP:
		return pkt.SrcIP
	case ByFlow:
		return proto + "/" + srcPort + " -> " + dstPort
	case BySrcIPPort:
		return pkt.SrcIP + ":" + srcPort + " (" + proto + ")"
	case BySrcIPFlow:
		return pkt.SrcIP + " -> " + srcPort + " -> " + dstPort + " (" + proto + ")"
	default:
		panic(fmt.Sprintf("aggregator: unknown dimension %d", int(d)))
	}
}
