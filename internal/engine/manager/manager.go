package manager

import (
	"PcapSpectra/internal/engine/aggregator"
	"PcapSpectra/internal/engine/filter"
	"PcapSpectra/internal/engine/protocol"
	"PcapSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	progressEvery  = 100000
	jobsPerWorker  = 256
	maxWorkerCount = 64
)

type verdict uint8

const (
	verdictRejected verdict = iota
	verdictExcluded
	verdictAccepted
)

type job struct {
	seq   uint64
	frame model.Frame
}

type result struct {
	seq     uint64
	verdict verdict
	packet  *model.PacketInfo
}

// Manager drives one decode -> filter -> aggregate pass over a frame source.
// The snapshot it builds has exactly one writer: the goroutine calling Run.
type Manager struct {
	snapshot   *aggregator.Snapshot
	blacklist  *filter.Blacklist
	numWorkers int
	stats      model.RunStats
	log        log.FieldLogger
}

// NewManager creates a Manager. With numWorkers > 1 frames are decoded
// concurrently but still absorbed in arrival order.
func NewManager(mode model.Mode, blacklist *filter.Blacklist, numWorkers int, logger log.FieldLogger) *Manager {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > maxWorkerCount {
		numWorkers = maxWorkerCount
	}
	return &Manager{
		snapshot:   aggregator.NewSnapshot(mode),
		blacklist:  blacklist,
		numWorkers: numWorkers,
		log:        logger,
	}
}

// Snapshot returns the snapshot built so far. It is complete once Run returns,
// and valid (though partial) when Run returned a context error.
func (m *Manager) Snapshot() *aggregator.Snapshot {
	return m.snapshot
}

// Stats returns the frame counters of the pass.
func (m *Manager) Stats() model.RunStats {
	return m.stats
}

// Run consumes src until it is exhausted or ctx is done. Cancellation returns
// ctx.Err(); every frame read before it has been fully absorbed.
func (m *Manager) Run(ctx context.Context, src model.FrameSource) error {
	m.log.WithFields(log.Fields{
		"workers":   m.numWorkers,
		"blacklist": !m.blacklist.Empty(),
	}).Debug("Starting pass")

	var err error
	if m.numWorkers == 1 {
		err = m.runSequential(ctx, src)
	} else {
		err = m.runParallel(ctx, src)
	}

	fields := log.Fields{
		"frames":   m.stats.Frames,
		"rejected": m.stats.Rejected,
		"excluded": m.stats.Excluded,
		"accepted": m.stats.Accepted,
	}
	switch {
	case err == nil:
		m.log.WithFields(fields).Info("Pass complete")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.log.WithFields(fields).Warn("Pass cancelled, keeping partial results")
	default:
		m.log.WithFields(fields).WithError(err).Error("Pass aborted")
	}
	return err
}

func (m *Manager) runSequential(ctx context.Context, src model.FrameSource) error {
	for seq := uint64(0); ; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapSourceErr(ctx, err)
		}
		m.apply(m.evaluate(job{seq: seq, frame: frame}))
	}
}

func (m *Manager) runParallel(ctx context.Context, src model.FrameSource) error {
	jobs := make(chan job, m.numWorkers*jobsPerWorker)
	results := make(chan result, m.numWorkers*jobsPerWorker)

	var readErr error
	go func() {
		defer close(jobs)
		for seq := uint64(0); ; seq++ {
			if err := ctx.Err(); err != nil {
				readErr = err
				return
			}
			frame, err := src.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				readErr = wrapSourceErr(ctx, err)
				return
			}
			jobs <- job{seq: seq, frame: frame}
		}
	}()

	var workerWg sync.WaitGroup
	workerWg.Add(m.numWorkers)
	for i := 0; i < m.numWorkers; i++ {
		go func() {
			defer workerWg.Done()
			for j := range jobs {
				results <- m.evaluate(j)
			}
		}()
	}
	go func() {
		workerWg.Wait()
		close(results)
	}()

	// Results arrive in any order; hold them until their predecessors are applied.
	pending := make(map[uint64]result)
	var next uint64
	for r := range results {
		pending[r.seq] = r
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			m.apply(ready)
			next++
		}
	}
	return readErr
}

// evaluate decodes and filters one frame. It has no side effects.
func (m *Manager) evaluate(j job) result {
	pkt, ok := protocol.ParseFrame(j.frame.Data, j.frame.Seconds, j.frame.Micros)
	if !ok {
		return result{seq: j.seq, verdict: verdictRejected}
	}
	if !m.blacklist.Accept(pkt) {
		return result{seq: j.seq, verdict: verdictExcluded, packet: pkt}
	}
	return result{seq: j.seq, verdict: verdictAccepted, packet: pkt}
}

func (m *Manager) apply(r result) {
	m.stats.Frames++
	switch r.verdict {
	case verdictRejected:
		m.stats.Rejected++
	case verdictExcluded:
		m.stats.Excluded++
	case verdictAccepted:
		m.stats.Accepted++
		m.snapshot.Absorb(r.packet)
	}
	if m.stats.Frames%progressEvery == 0 {
		m.log.WithField("frames", m.stats.Frames).Debug("Progress")
	}
}

func wrapSourceErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	return fmt.Errorf("failed to read frame: %w", err)
}
