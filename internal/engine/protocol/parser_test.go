package protocol

import (
	"PcapSpectra/internal/model"
	"encoding/binary"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawIPv4 builds an Ethernet+IPv4 frame by hand so that length fields can be inconsistent.
func rawIPv4(ihl, totalLength int, proto byte, src [4]byte, sport, dport uint16, transportBytes int) []byte {
	frame := make([]byte, ethernetHeaderLen+ihl+transportBytes)
	binary.BigEndian.PutUint16(frame[12:14], 0x0800)
	ip := frame[ethernetHeaderLen:]
	ip[0] = 0x40 | byte(ihl/4)
	binary.BigEndian.PutUint16(ip[2:4], uint16(totalLength))
	ip[8] = 64
	ip[9] = proto
	copy(ip[12:16], src[:])
	copy(ip[16:20], []byte{10, 0, 0, 2})
	if transportBytes >= 4 {
		binary.BigEndian.PutUint16(ip[ihl:], sport)
		binary.BigEndian.PutUint16(ip[ihl+2:], dport)
	}
	return frame
}

func rawIPv6(payloadLength int, next byte, src net.IP, sport, dport uint16, transportBytes int) []byte {
	frame := make([]byte, ethernetHeaderLen+ipv6HeaderLen+transportBytes)
	binary.BigEndian.PutUint16(frame[12:14], 0x86DD)
	ip := frame[ethernetHeaderLen:]
	ip[0] = 0x60
	binary.BigEndian.PutUint16(ip[4:6], uint16(payloadLength))
	ip[6] = next
	ip[7] = 64
	copy(ip[8:24], src.To16())
	if transportBytes >= 4 {
		binary.BigEndian.PutUint16(ip[ipv6HeaderLen:], sport)
		binary.BigEndian.PutUint16(ip[ipv6HeaderLen+2:], dport)
	}
	return frame
}

func serializeTCPv4(t *testing.T, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
	}
	tcp := &layers.TCP{SrcPort: 1234, DstPort: 80, SYN: true, Window: 1024}
	require.NoError(t, tcp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func TestParseFrame_IPv4TCP(t *testing.T) {
	frame := serializeTCPv4(t, make([]byte, 20))

	info, ok := ParseFrame(frame, 1700000000, 123456)
	require.True(t, ok)
	assert.Equal(t, model.ProtocolTCP, info.Protocol)
	assert.Equal(t, "10.0.0.1", info.SrcIP)
	assert.Equal(t, uint16(1234), info.SrcPort)
	assert.Equal(t, uint16(80), info.DstPort)
	assert.Equal(t, uint32(40), info.TransportLength)
	assert.Equal(t, int64(1700000000123), info.Timestamp)
}

func TestParseFrame_IPv4HeaderLengths(t *testing.T) {
	src := [4]byte{192, 168, 1, 7}
	for ihl := 20; ihl <= 60; ihl += 4 {
		for _, total := range []int{ihl + 1, ihl + 8, ihl + 1400} {
			frame := rawIPv4(ihl, total, 6, src, 5000, 443, 8)
			info, ok := ParseFrame(frame, 0, 0)
			require.Truef(t, ok, "ihl=%d total=%d", ihl, total)
			assert.Equal(t, uint32(total-ihl), info.TransportLength)
			assert.Equal(t, "192.168.1.7", info.SrcIP)
		}
	}
}

func TestParseFrame_UDPOverIPv6(t *testing.T) {
	src := net.ParseIP("2001:db8::1")
	frame := rawIPv6(48, 17, src, 53, 33000, 8)

	info, ok := ParseFrame(frame, 10, 999)
	require.True(t, ok)
	assert.Equal(t, model.ProtocolUDP, info.Protocol)
	assert.Equal(t, "2001:db8:0:0:0:0:0:1", info.SrcIP)
	assert.Equal(t, uint16(53), info.SrcPort)
	assert.Equal(t, uint16(33000), info.DstPort)
	assert.Equal(t, uint32(48), info.TransportLength)
	assert.Equal(t, int64(10000), info.Timestamp)
}

func TestParseFrame_IPv6LiteralRendering(t *testing.T) {
	src := net.ParseIP("fe80::0a0b:00c0:ffff")
	frame := rawIPv6(20, 6, src, 1, 2, 4)

	info, ok := ParseFrame(frame, 0, 0)
	require.True(t, ok)
	assert.Equal(t, "fe80:0:0:0:0:a0b:c0:ffff", info.SrcIP)
}

func TestParseFrame_Rejects(t *testing.T) {
	src := [4]byte{10, 0, 0, 1}
	v6 := net.ParseIP("2001:db8::1")

	arp := make([]byte, 60)
	binary.BigEndian.PutUint16(arp[12:14], 0x0806)

	wrongVersion := rawIPv4(20, 60, 6, src, 1, 2, 40)
	wrongVersion[ethernetHeaderLen] = 0x65

	shortIHL := rawIPv4(20, 60, 6, src, 1, 2, 40)
	shortIHL[ethernetHeaderLen] = 0x44

	v6WrongVersion := rawIPv6(20, 6, v6, 1, 2, 20)
	v6WrongVersion[ethernetHeaderLen] = 0x40

	cases := map[string][]byte{
		"empty":                  nil,
		"shorter than ethernet":  make([]byte, 13),
		"arp ethertype":          arp,
		"ipv4 truncated header":  rawIPv4(20, 60, 6, src, 1, 2, 40)[:ethernetHeaderLen+19],
		"ipv4 wrong version":     wrongVersion,
		"ipv4 ihl below 20":      shortIHL,
		"ipv4 ihl beyond frame":  rawIPv4(60, 80, 6, src, 1, 2, 0)[:ethernetHeaderLen+40],
		"ipv4 total below ihl":   rawIPv4(24, 20, 6, src, 1, 2, 8),
		"ipv4 zero transport":    rawIPv4(20, 20, 6, src, 1, 2, 8),
		"ipv4 icmp":              rawIPv4(20, 60, 1, src, 1, 2, 40),
		"ipv4 missing ports":     rawIPv4(20, 60, 17, src, 1, 2, 3),
		"ipv6 truncated header":  rawIPv6(20, 6, v6, 1, 2, 0)[:ethernetHeaderLen+39],
		"ipv6 wrong version":     v6WrongVersion,
		"ipv6 extension header":  rawIPv6(20, 0, v6, 1, 2, 20),
		"ipv6 icmpv6":            rawIPv6(20, 58, v6, 1, 2, 20),
		"ipv6 missing ports":     rawIPv6(20, 6, v6, 1, 2, 2),
		"ipv6 zero payload":      rawIPv6(0, 17, v6, 1, 2, 8),
		"ethernet header only":   rawIPv4(20, 60, 6, src, 1, 2, 40)[:ethernetHeaderLen],
		"ipv6 ethernet only":     rawIPv6(20, 6, v6, 1, 2, 20)[:ethernetHeaderLen],
	}

	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			info, ok := ParseFrame(frame, 1, 1)
			assert.False(t, ok)
			assert.Nil(t, info)
		})
	}
}

func TestParseFrame_TruncatedPrefixesNeverPanic(t *testing.T) {
	frames := [][]byte{
		serializeTCPv4(t, []byte("hello")),
		rawIPv6(30, 17, net.ParseIP("::1"), 7, 8, 30),
		rawIPv4(60, 100, 6, [4]byte{1, 2, 3, 4}, 7, 8, 40),
	}
	for _, frame := range frames {
		for n := 0; n <= len(frame); n++ {
			assert.NotPanics(t, func() { ParseFrame(frame[:n], 0, 0) })
		}
	}
}
