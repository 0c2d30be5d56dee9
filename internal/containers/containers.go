// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package containers tracks the container generation being filled by
// the acquisition loop and decides when it is due for commit.
package containers // import "github.com/go-aer/daq/internal/containers"

import "github.com/go-aer/daq/aer"

// Generation accumulates packets for the container currently being
// filled, together with the size and interval thresholds that force a
// commit.
type Generation struct {
	// MaxPacketSize forces a commit once any packet reaches this many
	// events. Zero disables size-based commits.
	MaxPacketSize int
	// Interval forces a commit once the stream time advances this many
	// microseconds past the generation start. Zero disables
	// interval-based commits.
	Interval int64

	container *aer.Container
	commitTS  int64
}

// NewGeneration returns a generation with the given thresholds and no
// active container.
func NewGeneration(maxPacketSize int, interval int64) *Generation {
	return &Generation{
		MaxPacketSize: maxPacketSize,
		Interval:      interval,
		commitTS:      -1,
	}
}

// Container returns the container being filled, allocating it on first
// use.
func (g *Generation) Container() *aer.Container {
	if g.container == nil {
		g.container = aer.NewContainer()
	}
	return g.container
}

// InitTimestamp records the stream time starting the current interval,
// if none is recorded yet.
func (g *Generation) InitTimestamp(full int64) {
	if g.commitTS < 0 {
		g.commitTS = full
	}
}

// ResetTimestamp clears the recorded interval start.
func (g *Generation) ResetTimestamp() { g.commitTS = -1 }

// SizeDue reports whether a packet of n events triggers a size commit.
func (g *Generation) SizeDue(n int) bool {
	return g.MaxPacketSize > 0 && n >= g.MaxPacketSize
}

// IntervalDue reports whether the stream time full ends the current
// interval.
func (g *Generation) IntervalDue(full int64) bool {
	return g.Interval > 0 && g.commitTS >= 0 && full > g.commitTS+g.Interval
}

// Commit detaches the filled container and starts a new generation.
// It returns nil when nothing was accumulated.
func (g *Generation) Commit() *aer.Container {
	c := g.container
	g.container = nil
	g.commitTS = -1
	if c == nil || c.Len() == 0 {
		return nil
	}
	return c
}
