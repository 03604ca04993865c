package main

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var (
	srcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

type packetWriter interface {
	WritePacket(ci gopacket.CaptureInfo, data []byte) error
}

type generator struct {
	rng      *rand.Rand
	hosts    []net.IP
	ports    []uint16
	udpRatio float64
	v6Ratio  float64
}

// main writes a capture of mixed TCP/UDP traffic over a small host and port
// pool so that keys repeat across packets.
func main() {
	app := cli.NewApp()
	app.Name = "pcapgen"
	app.Usage = "generate a synthetic capture for pcap-analyzer"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "o", Value: "test.pcap", Usage: "output capture file path"},
		cli.IntFlag{Name: "c", Value: 1000, Usage: "number of packets to generate"},
		cli.IntFlag{Name: "hosts", Value: 16, Usage: "size of the source address pool"},
		cli.Float64Flag{Name: "udp", Value: 0.3, Usage: "share of UDP packets"},
		cli.Float64Flag{Name: "ipv6", Value: 0.1, Usage: "share of IPv6 packets"},
		cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed"},
		cli.BoolFlag{Name: "ng", Usage: "write pcapng instead of classic pcap"},
	}
	app.Action = generate

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(c *cli.Context) error {
	outputFile := c.String("o")
	packetCount := c.Int("c")

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w, flush, err := newPacketWriter(f, c.Bool("ng"))
	if err != nil {
		return err
	}

	g := newGenerator(c.Int64("seed"), c.Int("hosts"), c.Float64("udp"), c.Float64("ipv6"))
	log.WithFields(log.Fields{"packets": packetCount, "file": outputFile}).Info("Generating packets")

	start := time.Now().Add(-time.Duration(packetCount) * time.Millisecond)
	for i := 0; i < packetCount; i++ {
		if (i+1)%100000 == 0 {
			log.WithField("packets", i+1).Info("Progress")
		}
		data, err := g.frame()
		if err != nil {
			return fmt.Errorf("failed to serialize layers: %w", err)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     start.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	}
	if err := flush(); err != nil {
		return err
	}

	log.WithFields(log.Fields{"packets": packetCount, "file": outputFile}).Info("Capture generated")
	return nil
}

func newPacketWriter(out io.Writer, ng bool) (packetWriter, func() error, error) {
	if ng {
		w, err := pcapgo.NewNgWriter(out, layers.LinkTypeEthernet)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to write pcapng header: %w", err)
		}
		return w, w.Flush, nil
	}
	w := pcapgo.NewWriter(out)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return nil, nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return w, func() error { return nil }, nil
}

func newGenerator(seed int64, hosts int, udpRatio, v6Ratio float64) *generator {
	if hosts < 1 {
		hosts = 1
	}
	rng := rand.New(rand.NewSource(seed))
	g := &generator{rng: rng, udpRatio: udpRatio, v6Ratio: v6Ratio}
	for i := 0; i < hosts; i++ {
		g.hosts = append(g.hosts, net.IPv4(10, 0, byte(i>>8), byte(i+1)).To4())
	}
	g.ports = []uint16{22, 53, 80, 123, 443, 5353, 8080}
	for i := 0; i < hosts; i++ {
		g.ports = append(g.ports, uint16(rng.Intn(65535-1024)+1024))
	}
	return g
}

func (g *generator) frame() ([]byte, error) {
	v6 := g.rng.Float64() < g.v6Ratio
	udp := g.rng.Float64() < g.udpRatio

	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	proto := layers.IPProtocolTCP
	if udp {
		proto = layers.IPProtocolUDP
	}

	var network gopacket.NetworkLayer
	var networkLayer gopacket.SerializableLayer
	if v6 {
		eth.EthernetType = layers.EthernetTypeIPv6
		src := net.ParseIP(fmt.Sprintf("2001:db8::%x", g.rng.Intn(len(g.hosts))+1))
		ip := &layers.IPv6{Version: 6, HopLimit: 64, NextHeader: proto, SrcIP: src, DstIP: net.ParseIP("2001:db8::ffff")}
		network, networkLayer = ip, ip
	} else {
		src := g.hosts[g.rng.Intn(len(g.hosts))]
		ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: proto, SrcIP: src, DstIP: net.IPv4(192, 0, 2, 1).To4()}
		network, networkLayer = ip, ip
	}

	srcPort := g.ports[g.rng.Intn(len(g.ports))]
	dstPort := g.ports[g.rng.Intn(len(g.ports))]
	var transport gopacket.SerializableLayer
	if udp {
		l := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
		if err := l.SetNetworkLayerForChecksum(network); err != nil {
			return nil, err
		}
		transport = l
	} else {
		l := &layers.TCP{SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort), Seq: g.rng.Uint32(), ACK: true, Window: 14600}
		if err := l.SetNetworkLayerForChecksum(network); err != nil {
			return nil, err
		}
		transport = l
	}

	payload := make([]byte, g.rng.Intn(1400)+50)
	g.rng.Read(payload)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, networkLayer, transport, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
