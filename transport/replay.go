// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"io"
	"os"
	"sync"

	"golang.org/x/xerrors"
)

// Replay streams the contents of a raw capture file in fixed-size
// chunks, standing in for a live device.
type Replay struct {
	f     *os.File
	chunk int

	mu   sync.Mutex
	stop chan struct{}
	out  chan []byte
}

// NewReplay opens the capture file at path. Buffers of up to chunk
// bytes are produced per stream read.
func NewReplay(path string, chunk int) (*Replay, error) {
	if chunk <= 0 {
		return nil, xerrors.Errorf("transport: invalid replay chunk size %d", chunk)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("transport: could not open capture file: %w", err)
	}
	return &Replay{f: f, chunk: chunk}, nil
}

// StartStream starts pumping file chunks. The returned channel closes
// at end of file or on StopStream.
func (rp *Replay) StartStream() (<-chan []byte, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.out != nil {
		return nil, xerrors.Errorf("transport: replay stream already started")
	}
	rp.stop = make(chan struct{})
	rp.out = make(chan []byte)

	go rp.pump(rp.stop, rp.out)
	return rp.out, nil
}

func (rp *Replay) pump(stop chan struct{}, out chan<- []byte) {
	defer close(out)
	for {
		buf := make([]byte, rp.chunk)
		n, err := rp.f.Read(buf)
		if n > 0 {
			select {
			case out <- buf[:n]:
			case <-stop:
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			return
		}
	}
}

// StopStream ends the replay.
func (rp *Replay) StopStream() error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.out == nil {
		return nil
	}
	close(rp.stop)
	rp.out = nil
	return nil
}

// Close stops any running stream and closes the capture file.
func (rp *Replay) Close() error {
	_ = rp.StopStream()
	return rp.f.Close()
}
