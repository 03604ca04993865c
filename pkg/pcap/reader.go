package pcap

import (
	"PcapSpectra/internal/model"
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrUnsupportedFormat is returned when a file is neither pcap nor pcapng.
var ErrUnsupportedFormat = errors.New("unsupported capture file format")

const pcapngMagic = 0x0A0D0D0A

type packetDataSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Reader is a pull-based frame source over a pcap or pcapng capture file.
type Reader struct {
	file   *os.File
	source packetDataSource
}

// NewReader opens filePath and detects its container format.
func NewReader(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := newReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	r.file = f
	return r, nil
}

func newReader(rd io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(rd, 1<<16)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var source packetDataSource
	if binary.BigEndian.Uint32(magic) == pcapngMagic {
		source, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		source, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return &Reader{source: source}, nil
}

// LinkType returns the link type declared by the capture file.
func (r *Reader) LinkType() layers.LinkType {
	return r.source.LinkType()
}

// Next returns the next frame of the capture, io.EOF at the end of the file,
// or ctx.Err() once ctx is done.
func (r *Reader) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	data, ci, err := r.source.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// A capture cut mid-record ends like a complete one.
			return model.Frame{}, io.EOF
		}
		return model.Frame{}, err
	}
	return model.Frame{
		Data:    data,
		Seconds: ci.Timestamp.Unix(),
		Micros:  int64(ci.Timestamp.Nanosecond() / 1000),
	}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
