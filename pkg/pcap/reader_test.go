package pcap

import (
	"PcapSpectra/internal/model"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTimes = []time.Time{
	time.Unix(1700000000, 123456000),
	time.Unix(1700000001, 999999000),
	time.Unix(1699999999, 0),
}

func frames() [][]byte {
	return [][]byte{
		make([]byte, 60),
		{1, 2, 3},
		make([]byte, 1514),
	}
}

func writePcap(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	for i, data := range frames() {
		ci := gopacket.CaptureInfo{Timestamp: testTimes[i], CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
}

func writePcapng(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	require.NoError(t, err)
	for i, data := range frames() {
		ci := gopacket.CaptureInfo{Timestamp: testTimes[i], CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
	require.NoError(t, w.Flush())
}

func readAll(t *testing.T, r *Reader) []model.Frame {
	t.Helper()
	var out []model.Frame
	for {
		f, err := r.Next(context.Background())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, f)
	}
}

func TestReader_Formats(t *testing.T) {
	writers := map[string]func(*testing.T, string){
		"capture.pcap":   writePcap,
		"capture.pcapng": writePcapng,
	}
	for name, write := range writers {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			write(t, path)

			r, err := NewReader(path)
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

			got := readAll(t, r)
			require.Len(t, got, 3)
			for i, f := range got {
				assert.Equal(t, frames()[i], f.Data)
				assert.Equal(t, testTimes[i].Unix(), f.Seconds)
				assert.Equal(t, int64(testTimes[i].Nanosecond()/1000), f.Micros)
			}
		})
	}
}

func TestReader_Cancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	writePcap(t, path)

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	_, err = r.Next(ctx)
	require.NoError(t, err)
	cancel()
	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReader_Errors(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.pcap"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "garbage.pcap")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a capture file"), 0644))
	_, err = NewReader(garbage)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	empty := filepath.Join(t.TempDir(), "empty.pcap")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = NewReader(empty)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]model.Frame{{Seconds: 1}, {Seconds: 2}})
	ctx := context.Background()

	f, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.Seconds)
	f, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.Seconds)
	_, err = src.Next(ctx)
	assert.Equal(t, io.EOF, err)
}
