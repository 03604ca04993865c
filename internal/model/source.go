package model

import "context"

// FrameSource yields frames one at a time in capture order.
// Next returns io.EOF once the input is exhausted and ctx.Err() once ctx is done.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}
