package filter

import (
	"PcapSpectra/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func packet(proto model.Protocol, ip string, sport, dport uint16) *model.PacketInfo {
	return &model.PacketInfo{Protocol: proto, SrcIP: ip, SrcPort: sport, DstPort: dport, TransportLength: 10}
}

func TestBlacklist_Accept(t *testing.T) {
	bl := NewBlacklist([]uint16{80, 22}, []uint16{53}, []string{"10.0.0.1", "2001:db8:0:0:0:0:0:1"})

	tests := []struct {
		name string
		pkt  *model.PacketInfo
		want bool
	}{
		{"ip listed", packet(model.ProtocolUDP, "10.0.0.1", 1000, 2000), false},
		{"ipv6 literal listed", packet(model.ProtocolTCP, "2001:db8:0:0:0:0:0:1", 1000, 2000), false},
		{"ipv6 compressed form is a different string", packet(model.ProtocolTCP, "2001:db8::1", 1000, 2000), true},
		{"ip prefix does not match", packet(model.ProtocolTCP, "10.0.0.10", 1000, 2000), true},
		{"tcp dst port listed", packet(model.ProtocolTCP, "10.0.0.2", 40000, 80), false},
		{"tcp src port listed", packet(model.ProtocolTCP, "10.0.0.2", 22, 40000), false},
		{"udp shares tcp listed port", packet(model.ProtocolUDP, "10.0.0.2", 40000, 80), true},
		{"udp dst port listed", packet(model.ProtocolUDP, "10.0.0.2", 40000, 53), false},
		{"tcp shares udp listed port", packet(model.ProtocolTCP, "10.0.0.2", 53, 40000), true},
		{"nothing listed", packet(model.ProtocolTCP, "192.168.0.1", 443, 50000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bl.Accept(tt.pkt))
		})
	}
}

func TestBlacklist_EmptyAcceptsEverything(t *testing.T) {
	var nilList *Blacklist
	assert.True(t, nilList.Empty())
	assert.True(t, nilList.Accept(packet(model.ProtocolTCP, "1.1.1.1", 1, 2)))

	bl := NewBlacklist(nil, nil, nil)
	assert.True(t, bl.Empty())
	assert.True(t, bl.Accept(packet(model.ProtocolUDP, "1.1.1.1", 1, 2)))
}
