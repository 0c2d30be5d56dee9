// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dvsnoise learns the hot pixels of a DVS sensor from its
// polarity event stream. Hot pixels fire continuously regardless of
// scene activity; observing a quiet sensor for a while makes them
// stand out as the busiest coordinates.
package dvsnoise // import "github.com/go-aer/daq/internal/dvsnoise"

import (
	"sort"

	"github.com/go-aer/daq/aer"
)

// Pixel is a sensor coordinate with its observed event count.
type Pixel struct {
	X     uint16
	Y     uint16
	Count uint32
}

// Trainer accumulates per-pixel event counts over a fixed observation
// window.
type Trainer struct {
	counts map[uint32]uint32
	seen   int
	limit  int
}

// NewTrainer returns a trainer that observes limit events before
// training completes.
func NewTrainer(limit int) *Trainer {
	return &Trainer{
		counts: make(map[uint32]uint32),
		limit:  limit,
	}
}

// Observe feeds one polarity event to the trainer.
func (t *Trainer) Observe(ev aer.Polarity) {
	if t.Done() {
		return
	}
	t.counts[uint32(ev.Y)<<16|uint32(ev.X)]++
	t.seen++
}

// Done reports whether the observation window is complete.
func (t *Trainer) Done() bool { return t.seen >= t.limit }

// Hottest returns up to n pixels ordered by descending event count.
// Ties break on (y,x) so the result is deterministic.
func (t *Trainer) Hottest(n int) []Pixel {
	pixels := make([]Pixel, 0, len(t.counts))
	for addr, cnt := range t.counts {
		pixels = append(pixels, Pixel{
			X:     uint16(addr),
			Y:     uint16(addr >> 16),
			Count: cnt,
		})
	}
	sort.Slice(pixels, func(i, j int) bool {
		pi, pj := pixels[i], pixels[j]
		if pi.Count != pj.Count {
			return pi.Count > pj.Count
		}
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.X < pj.X
	})
	if len(pixels) > n {
		pixels = pixels[:n]
	}
	return pixels
}

// Filter drops events originating from a fixed set of pixels.
type Filter struct {
	hot map[uint32]struct{}
}

// NewFilter returns a filter rejecting the given pixels.
func NewFilter(pixels []Pixel) *Filter {
	hot := make(map[uint32]struct{}, len(pixels))
	for _, p := range pixels {
		hot[uint32(p.Y)<<16|uint32(p.X)] = struct{}{}
	}
	return &Filter{hot: hot}
}

// Reject reports whether the event comes from a hot pixel.
func (f *Filter) Reject(ev aer.Polarity) bool {
	_, hot := f.hot[uint32(ev.Y)<<16|uint32(ev.X)]
	return hot
}
