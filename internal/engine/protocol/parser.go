package protocol

import (
	"PcapSpectra/internal/model"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/gopacket/layers"
)

const (
	ethernetHeaderLen = 14
	ipv4MinHeaderLen  = 20
	ipv6HeaderLen     = 40
	portFieldsLen     = 4
)

// ParseFrame decodes the network and transport header fields of a raw Ethernet frame.
// The boolean is false when the frame is not decodable; such frames are skipped silently.
func ParseFrame(frame []byte, seconds, micros int64) (*model.PacketInfo, bool) {
	if len(frame) < ethernetHeaderLen {
		return nil, false
	}

	var (
		info *model.PacketInfo
		ok   bool
	)
	switch layers.EthernetType(binary.BigEndian.Uint16(frame[12:14])) {
	case layers.EthernetTypeIPv4:
		info, ok = parseIPv4(frame[ethernetHeaderLen:])
	case layers.EthernetTypeIPv6:
		info, ok = parseIPv6(frame[ethernetHeaderLen:])
	default:
		return nil, false
	}
	if !ok {
		return nil, false
	}

	info.Timestamp = seconds*1000 + micros/1000
	return info, true
}

func parseIPv4(ip []byte) (*model.PacketInfo, bool) {
	if len(ip) < ipv4MinHeaderLen || ip[0]>>4 != 4 {
		return nil, false
	}
	ihl := int(ip[0]&0x0f) * 4
	if ihl < ipv4MinHeaderLen || len(ip) < ihl {
		return nil, false
	}
	totalLength := int(binary.BigEndian.Uint16(ip[2:4]))
	if totalLength < ihl {
		return nil, false
	}
	proto, ok := transportProtocol(ip[9])
	if !ok {
		return nil, false
	}
	transportLength := totalLength - ihl
	if transportLength <= 0 {
		return nil, false
	}
	srcPort, dstPort, ok := ports(ip[ihl:])
	if !ok {
		return nil, false
	}

	return &model.PacketInfo{
		Protocol:        proto,
		SrcIP:           formatIPv4(ip[12:16]),
		SrcPort:         srcPort,
		DstPort:         dstPort,
		TransportLength: uint32(transportLength),
	}, true
}

func parseIPv6(ip []byte) (*model.PacketInfo, bool) {
	if len(ip) < ipv6HeaderLen || ip[0]>>4 != 6 {
		return nil, false
	}
	payloadLength := binary.BigEndian.Uint16(ip[4:6])
	proto, ok := transportProtocol(ip[6])
	if !ok {
		return nil, false
	}
	srcPort, dstPort, ok := ports(ip[ipv6HeaderLen:])
	if !ok || payloadLength == 0 {
		return nil, false
	}

	return &model.PacketInfo{
		Protocol:        proto,
		SrcIP:           formatIPv6(ip[8:24]),
		SrcPort:         srcPort,
		DstPort:         dstPort,
		TransportLength: uint32(payloadLength),
	}, true
}

func transportProtocol(b byte) (model.Protocol, bool) {
	switch layers.IPProtocol(b) {
	case layers.IPProtocolTCP:
		return model.ProtocolTCP, true
	case layers.IPProtocolUDP:
		return model.ProtocolUDP, true
	default:
		return 0, false
	}
}

func ports(transport []byte) (src, dst uint16, ok bool) {
	if len(transport) < portFieldsLen {
		return 0, 0, false
	}
	return binary.BigEndian.Uint16(transport[0:2]), binary.BigEndian.Uint16(transport[2:4]), true
}

func formatIPv4(b []byte) string {
	var sb strings.Builder
	sb.Grow(15)
	for i := 0; i < 4; i++ {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(int(b[i])))
	}
	return sb.String()
}

// formatIPv6 renders all eight groups without zero-run compression,
// e.g. "2001:db8:0:0:0:0:0:1". Keys built from it must stay stable.
func formatIPv6(b []byte) string {
	var sb strings.Builder
	sb.Grow(39)
	for i := 0; i < 16; i += 2 {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatUint(uint64(binary.BigEndian.Uint16(b[i:i+2])), 16))
	}
	return sb.String()
}
