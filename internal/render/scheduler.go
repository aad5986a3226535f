package render

import (
	"context"
	"image"
	"sync"

	"github.com/example/markshot/internal/oplog"
)

// Frame is a finished background render.
type Frame struct {
	Seq   uint64
	Image *image.RGBA
}

type request struct {
	seq  uint64
	base *image.RGBA
	ops  []oplog.Operation
}

// Scheduler renders on a background goroutine. Only the newest request is
// delivered: a pending request is replaced by a newer one, and an in-flight
// render is cancelled when a newer request arrives.
type Scheduler struct {
	deliver func(Frame)
	reqs    chan request

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	closed   bool
	finished chan struct{}
}

// NewScheduler starts the worker. deliver runs on the worker goroutine with
// the scheduler locked and must not call back into it. A frame is never
// delivered after a newer Request has returned, but one can be superseded
// while the receiver holds it, so receivers compare Frame.Seq with Latest
// before showing it.
func NewScheduler(deliver func(Frame)) *Scheduler {
	s := &Scheduler{
		deliver:  deliver,
		reqs:     make(chan request, 1),
		finished: make(chan struct{}),
	}
	go s.run()
	return s
}

// Request queues a render of ops over base and returns its sequence number.
// ops must be a snapshot the caller no longer mutates.
func (s *Scheduler) Request(base *image.RGBA, ops []oplog.Operation) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.seq++
	req := request{seq: s.seq, base: base, ops: ops}
	if s.cancel != nil {
		s.cancel()
	}
	for {
		select {
		case s.reqs <- req:
			return req.seq
		default:
		}
		select {
		case <-s.reqs:
		default:
		}
	}
}

// Latest returns the sequence number of the newest request.
func (s *Scheduler) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close stops the worker after cancelling any in-flight render.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	close(s.reqs)
	s.mu.Unlock()
	<-s.finished
}

func (s *Scheduler) run() {
	defer close(s.finished)
	for req := range s.reqs {
		ctx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		stale := req.seq != s.seq
		if !stale {
			s.cancel = cancel
		}
		s.mu.Unlock()
		if stale {
			cancel()
			continue
		}

		img, err := RenderContext(ctx, req.base, req.ops)

		s.mu.Lock()
		s.cancel = nil
		if err == nil && req.seq == s.seq && !s.closed {
			s.deliver(Frame{Seq: req.seq, Image: img})
		}
		s.mu.Unlock()
		cancel()
	}
}
