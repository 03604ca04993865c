package aggregator

import (
	"PcapSpectra/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPacket() *model.PacketInfo {
	return &model.PacketInfo{
		Protocol:        model.ProtocolTCP,
		SrcIP:           "10.0.0.1",
		SrcPort:         1234,
		DstPort:         80,
		TransportLength: 40,
		Timestamp:       1700000000123,
	}
}

func TestSnapshot_AbsorbKeys(t *testing.T) {
	want := map[Dimension]string{
		BySrcPort:   "TCP/1234",
		ByDstPort:   "TCP/80",
		BySrcIP:     "10.0.0.1",
		ByFlow:      "TCP/1234 -> 80",
		BySrcIPPort: "10.0.0.1:1234 (TCP)",
		BySrcIPFlow: "10.0.0.1 -> 1234 -> 80 (TCP)",
	}

	for _, mode := range []model.Mode{model.ModeBytes, model.ModePackets} {
		t.Run(string(mode), func(t *testing.T) {
			snap := NewSnapshot(mode)
			snap.Absorb(scenarioPacket())

			value := uint64(40)
			if mode == model.ModePackets {
				value = 1
			}
			for _, d := range Dimensions {
				table := snap.Table(d)
				require.Equal(t, 1, table.Len(), d.Name())
				assert.Equal(t, []model.Observation{{Timestamp: 1700000000123, Value: value}}, table.Series(want[d]), d.Name())
			}
		})
	}
}

func TestDimension_KeyUDPAndIPv6(t *testing.T) {
	pkt := &model.PacketInfo{
		Protocol: model.ProtocolUDP,
		SrcIP:    "2001:db8:0:0:0:0:0:1",
		SrcPort:  53,
		DstPort:  5353,
	}
	assert.Equal(t, "UDP/53", BySrcPort.Key(pkt))
	assert.Equal(t, "UDP/5353", ByDstPort.Key(pkt))
	assert.Equal(t, "2001:db8:0:0:0:0:0:1", BySrcIP.Key(pkt))
	assert.Equal(t, "UDP/53 -> 5353", ByFlow.Key(pkt))
	assert.Equal(t, "2001:db8:0:0:0:0:0:1:53 (UDP)", BySrcIPPort.Key(pkt))
	assert.Equal(t, "2001:db8:0:0:0:0:0:1 -> 53 -> 5353 (UDP)", BySrcIPFlow.Key(pkt))
}

func TestSnapshot_PreservesArrivalOrder(t *testing.T) {
	snap := NewSnapshot(model.ModeBytes)
	timestamps := []int64{5000, 1000, 3000, 1000, 9000, 2000}
	for i, ts := range timestamps {
		pkt := scenarioPacket()
		pkt.Timestamp = ts
		pkt.TransportLength = uint32(i + 1)
		snap.Absorb(pkt)
	}

	for _, d := range Dimensions {
		series := snap.Table(d).Series(d.Key(scenarioPacket()))
		require.Len(t, series, len(timestamps))
		for i, obs := range series {
			assert.Equal(t, timestamps[i], obs.Timestamp)
			assert.Equal(t, uint64(i+1), obs.Value)
		}
	}
}

func TestSnapshot_ReplayIsDeterministic(t *testing.T) {
	stream := []*model.PacketInfo{
		scenarioPacket(),
		{Protocol: model.ProtocolUDP, SrcIP: "10.0.0.9", SrcPort: 53, DstPort: 40000, TransportLength: 80, Timestamp: 7},
		{Protocol: model.ProtocolTCP, SrcIP: "10.0.0.1", SrcPort: 1234, DstPort: 443, TransportLength: 20, Timestamp: 3},
	}

	build := func() *Snapshot {
		snap := NewSnapshot(model.ModeBytes)
		for _, pkt := range stream {
			snap.Absorb(pkt)
		}
		return snap
	}

	a, b := build(), build()
	for _, d := range Dimensions {
		assert.Equal(t, a.Table(d).Keys(), b.Table(d).Keys())
		for _, k := range a.Table(d).Keys() {
			assert.Equal(t, a.Table(d).Series(k), b.Table(d).Series(k))
		}
	}
	assert.Equal(t, uint64(60), a.Table(BySrcIP).Total("10.0.0.1"))
}

func TestSnapshot_CopyIsIndependent(t *testing.T) {
	snap := NewSnapshot(model.ModePackets)
	snap.Absorb(scenarioPacket())
	c := snap.Copy()
	snap.Absorb(scenarioPacket())

	assert.Len(t, c.Table(ByFlow).Series("TCP/1234 -> 80"), 1)
	assert.Len(t, snap.Table(ByFlow).Series("TCP/1234 -> 80"), 2)
	assert.Equal(t, model.ModePackets, c.Mode())
}

func TestParseDimension(t *testing.T) {
	for _, d := range Dimensions {
		got, ok := ParseDimension(d.Name())
		require.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := ParseDimension("by_nothing")
	assert.False(t, ok)
	assert.True(t, NewSnapshot(model.ModeBytes).Empty())
}
