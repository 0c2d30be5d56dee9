// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "capture.aer")
	data := []byte{0x01, 0x10, 0x02, 0x30, 0x03, 0x80, 0x04}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		t.Fatalf("could not create capture file: %+v", err)
	}

	rp, err := NewReplay(fname, 4)
	if err != nil {
		t.Fatalf("could not open replay: %+v", err)
	}
	defer rp.Close()

	ch, err := rp.StartStream()
	if err != nil {
		t.Fatalf("could not start stream: %+v", err)
	}
	if _, err := rp.StartStream(); err == nil {
		t.Fatalf("double StartStream did not fail")
	}

	var got []byte
	for buf := range ch {
		got = append(got, buf...)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("invalid replayed data:\ngot= %x\nwant=%x", got, data)
	}
}

func TestReplayInvalidChunk(t *testing.T) {
	if _, err := NewReplay("x", 0); err == nil {
		t.Fatalf("NewReplay with zero chunk did not fail")
	}
}

func TestPipe(t *testing.T) {
	p := NewPipe(4)
	ch, err := p.StartStream()
	if err != nil {
		t.Fatalf("could not start stream: %+v", err)
	}

	want := [][]byte{{0x01, 0x02}, {0x03}}
	for _, buf := range want {
		if err := p.Feed(buf); err != nil {
			t.Fatalf("could not feed: %+v", err)
		}
	}
	if err := p.StopStream(); err != nil {
		t.Fatalf("could not stop stream: %+v", err)
	}
	if err := p.StopStream(); err != nil {
		t.Fatalf("double StopStream failed: %+v", err)
	}
	if err := p.Feed([]byte{0xff}); err == nil {
		t.Fatalf("Feed after stop did not fail")
	}

	var got [][]byte
	for buf := range ch {
		got = append(got, buf)
	}
	if len(got) != len(want) {
		t.Fatalf("invalid buffer count: got=%d, want=%d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("buffer %d: got=%x, want=%x", i, got[i], want[i])
		}
	}
}

func TestPipeStopReleasesBlockedFeed(t *testing.T) {
	p := NewPipe(1)
	if _, err := p.StartStream(); err != nil {
		t.Fatalf("could not start stream: %+v", err)
	}
	if err := p.Feed([]byte{0x01}); err != nil {
		t.Fatalf("could not feed: %+v", err)
	}

	// the pipe is full: this Feed blocks until StopStream runs.
	fed := make(chan error, 1)
	go func() {
		fed <- p.Feed([]byte{0x02})
	}()

	done := make(chan error, 1)
	go func() {
		done <- p.StopStream()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("could not stop stream: %+v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("StopStream blocked behind a pending Feed")
	}
	select {
	case err := <-fed:
		if err == nil {
			t.Fatalf("Feed on a stopped pipe did not fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Feed still blocked after StopStream")
	}
}

func TestRegisterMap(t *testing.T) {
	m := NewRegisterMap()

	v, err := m.ReadRegister(1, 2)
	if err != nil {
		t.Fatalf("could not read register: %+v", err)
	}
	if v != 0 {
		t.Fatalf("unwritten register: got=%d, want=0", v)
	}

	if err := m.WriteRegister(1, 2, 0xcafe); err != nil {
		t.Fatalf("could not write register: %+v", err)
	}
	v, err = m.ReadRegister(1, 2)
	if err != nil {
		t.Fatalf("could not read register: %+v", err)
	}
	if v != 0xcafe {
		t.Fatalf("invalid register value: got=%#x, want=0xcafe", v)
	}

	// distinct (module, param) pairs do not alias.
	if err := m.WriteRegister(2, 1, 0xbeef); err != nil {
		t.Fatalf("could not write register: %+v", err)
	}
	v, _ = m.ReadRegister(1, 2)
	if v != 0xcafe {
		t.Fatalf("register aliasing: got=%#x, want=0xcafe", v)
	}
}
