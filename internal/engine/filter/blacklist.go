package filter

import "PcapSpectra/internal/model"

// Blacklist decides whether a decoded packet is excluded from aggregation.
// It is built once per run and only read afterwards.
type Blacklist struct {
	tcpPorts map[uint16]struct{}
	udpPorts map[uint16]struct{}
	ips      map[string]struct{}
}

// NewBlacklist builds a Blacklist from port and source address lists.
// Addresses are matched literally against the decoded source address.
func NewBlacklist(tcpPorts, udpPorts []uint16, ips []string) *Blacklist {
	b := &Blacklist{
		tcpPorts: make(map[uint16]struct{}, len(tcpPorts)),
		udpPorts: make(map[uint16]struct{}, len(udpPorts)),
		ips:      make(map[string]struct{}, len(ips)),
	}
	for _, p := range tcpPorts {
		b.tcpPorts[p] = struct{}{}
	}
	for _, p := range udpPorts {
		b.udpPorts[p] = struct{}{}
	}
	for _, ip := range ips {
		b.ips[ip] = struct{}{}
	}
	return b
}

// Accept reports whether pkt survives the blacklist.
func (b *Blacklist) Accept(pkt *model.PacketInfo) bool {
	if b == nil {
		return true
	}
	if _, ok := b.ips[pkt.SrcIP]; ok {
		return false
	}
	switch pkt.Protocol {
	case model.ProtocolTCP:
		return !hasPort(b.tcpPorts, pkt)
	case model.ProtocolUDP:
		return !hasPort(b.udpPorts, pkt)
	}
	return true
}

// Empty reports whether no rule is configured.
func (b *Blacklist) Empty() bool {
	return b == nil || len(b.tcpPorts)+len(b.udpPorts)+len(b.ips) == 0
}

func hasPort(set map[uint16]struct{}, pkt *model.PacketInfo) bool {
	if _, ok := set[pkt.SrcPort]; ok {
		return true
	}
	_, ok := set[pkt.DstPort]
	return ok
}
