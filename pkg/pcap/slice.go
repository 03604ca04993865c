package pcap

import (
	"PcapSpectra/internal/model"
	"context"
	"io"
)

// SliceSource serves frames from memory in order.
type SliceSource struct {
	frames []model.Frame
	pos    int
}

// NewSliceSource creates a frame source over frames.
func NewSliceSource(frames []model.Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

// Next implements model.FrameSource.
func (s *SliceSource) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}
	if s.pos >= len(s.frames) {
		return model.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}
