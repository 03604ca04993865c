// Package testutil synthesizes Ethernet frames and capture files for tests.
package testutil

import (
	"PcapSpectra/internal/model"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	srcMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	dstMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}
)

// Packet describes a frame to synthesize.
type Packet struct {
	UDP        bool
	SrcIP      string
	DstIP      string
	SrcPort    uint16
	DstPort    uint16
	PayloadLen int
	Time       time.Time
}

// Frame serializes p into an Ethernet frame with consistent length fields.
// IPv6 is used when SrcIP is an IPv6 address.
func Frame(t testing.TB, p Packet) []byte {
	t.Helper()

	src := net.ParseIP(p.SrcIP)
	dst := net.ParseIP(p.DstIP)
	if src == nil {
		t.Fatalf("invalid source address %q", p.SrcIP)
	}
	v6 := src.To4() == nil
	if dst == nil {
		if v6 {
			dst = net.ParseIP("2001:db8::ffff")
		} else {
			dst = net.IPv4(192, 0, 2, 1)
		}
	}

	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	transportProto := layers.IPProtocolTCP
	if p.UDP {
		transportProto = layers.IPProtocolUDP
	}

	var network gopacket.NetworkLayer
	var networkLayer gopacket.SerializableLayer
	if v6 {
		eth.EthernetType = layers.EthernetTypeIPv6
		ip := &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: transportProto, SrcIP: src, DstIP: dst}
		network, networkLayer = ip, ip
	} else {
		ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: transportProto, SrcIP: src.To4(), DstIP: dst.To4()}
		network, networkLayer = ip, ip
	}

	var transport gopacket.SerializableLayer
	if p.UDP {
		udp := &layers.UDP{SrcPort: layers.UDPPort(p.SrcPort), DstPort: layers.UDPPort(p.DstPort)}
		if err := udp.SetNetworkLayerForChecksum(network); err != nil {
			t.Fatalf("checksum setup: %v", err)
		}
		transport = udp
	} else {
		tcp := &layers.TCP{SrcPort: layers.TCPPort(p.SrcPort), DstPort: layers.TCPPort(p.DstPort), ACK: true, Window: 512}
		if err := tcp.SetNetworkLayerForChecksum(network); err != nil {
			t.Fatalf("checksum setup: %v", err)
		}
		transport = tcp
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	payload := gopacket.Payload(make([]byte, p.PayloadLen))
	if err := gopacket.SerializeLayers(buf, opts, eth, networkLayer, transport, payload); err != nil {
		t.Fatalf("serialize frame: %v", err)
	}
	return buf.Bytes()
}

// ModelFrame wraps Frame with the capture timestamp split as a frame source would.
func ModelFrame(t testing.TB, p Packet) model.Frame {
	return model.Frame{
		Data:    Frame(t, p),
		Seconds: p.Time.Unix(),
		Micros:  int64(p.Time.Nanosecond() / 1000),
	}
}

// WritePcap writes packets into a classic pcap file at path.
func WritePcap(t testing.TB, path string, packets []Packet) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create pcap: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("write pcap header: %v", err)
	}
	for _, p := range packets {
		data := Frame(t, p)
		ci := gopacket.CaptureInfo{Timestamp: p.Time, CaptureLength: len(data), Length: len(data)}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("write pcap packet: %v", err)
		}
	}
}
