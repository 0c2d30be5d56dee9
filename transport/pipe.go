// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"sync"

	"golang.org/x/xerrors"
)

// Pipe is an in-memory DataStream fed by hand, used by tests and by
// tools that synthesize event streams.
type Pipe struct {
	mu      sync.Mutex
	out     chan []byte
	done    chan struct{}
	closed  bool
	feeders sync.WaitGroup
}

// NewPipe returns a pipe buffering up to capacity pending buffers.
func NewPipe(capacity int) *Pipe {
	return &Pipe{
		out:  make(chan []byte, capacity),
		done: make(chan struct{}),
	}
}

// StartStream hands out the read side of the pipe.
func (p *Pipe) StartStream() (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, xerrors.Errorf("transport: pipe closed")
	}
	return p.out, nil
}

// Feed queues one raw buffer. It blocks while the pipe is full and
// returns an error once the pipe is stopped.
func (p *Pipe) Feed(buf []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return xerrors.Errorf("transport: pipe closed")
	}
	p.feeders.Add(1)
	p.mu.Unlock()
	defer p.feeders.Done()

	select {
	case p.out <- buf:
		return nil
	case <-p.done:
		return xerrors.Errorf("transport: pipe closed")
	}
}

// StopStream closes the pipe; readers observe end of stream after the
// queued buffers drain. Blocked feeders are released with an error.
func (p *Pipe) StopStream() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	p.feeders.Wait()
	close(p.out)
	return nil
}
