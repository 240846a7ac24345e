package main

import (
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/arena"
)

// Frame reports one fill of the arena.
type Frame struct {
	Allocated int64         `json:"allocated"`
	Exhausted int64         `json:"exhausted"`
	Used      int           `json:"used"`
	Elapsed   time.Duration `json:"elapsed,format:nano"`
}

// Report is the memstress result.
type Report struct {
	Config Config      `json:"config"`
	Frames []Frame     `json:"frames"`
	Stats  arena.Stats `json:"stats"`
}

// Run fills a shared AtomicArena from c.Workers producers once per frame.
// Each producer allocates until the arena reports exhaustion.
func Run(c Config, log *zap.Logger) (*Report, error) {
	if c.Workers <= 0 || c.Size <= 0 || c.Frames <= 0 {
		return nil, errors.Newf("workers, size and frames must be positive (got %d, %d, %d)",
			c.Workers, c.Size, c.Frames)
	}

	var backing alloc.Allocator
	switch c.Backing {
	case "", "heap":
		backing = alloc.Heap{}
	case "pages":
		backing = alloc.NewPages()
	default:
		return nil, errors.Newf("unknown backing %q", c.Backing)
	}

	ar, err := arena.NewAtomic(c.Budget, backing)
	if err != nil {
		return nil, errors.Wrap(err, "create arena")
	}

	rep := &Report{Config: c}
	for frame := range c.Frames {
		ar.Reset()
		var allocated, exhausted atomic.Int64
		var failure atomic.Pointer[error]

		t0 := time.Now()
		Parallel(c.Workers, func(worker int) {
			for {
				b, err := ar.Alloc(c.Size, c.Align)
				if err != nil {
					if errors.Is(err, alloc.ErrExhausted) {
						exhausted.Add(1)
					} else {
						failure.CompareAndSwap(nil, &err)
					}
					return
				}
				b[0] = byte(worker)
				allocated.Add(1)
			}
		})
		if p := failure.Load(); p != nil {
			_ = ar.Free()
			return nil, *p
		}

		f := Frame{
			Allocated: allocated.Load(),
			Exhausted: exhausted.Load(),
			Used:      ar.Stats().Used,
			Elapsed:   time.Since(t0),
		}
		rep.Frames = append(rep.Frames, f)
		log.Debug("frame done",
			zap.Int("frame", frame),
			zap.Int64("allocated", f.Allocated),
			zap.Int64("exhausted", f.Exhausted),
			zap.Duration("elapsed", f.Elapsed))
	}

	rep.Stats = ar.Stats()
	if err := ar.Free(); err != nil {
		return nil, err
	}
	log.Info("stress run finished",
		zap.Int("frames", len(rep.Frames)),
		zap.Int("workers", c.Workers),
		zap.Int("peak", rep.Stats.Peak))
	return rep, nil
}
