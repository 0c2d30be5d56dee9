// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exchange hands event containers from the acquisition loop to
// the consumer through a bounded ring, with a configurable full-buffer
// policy.
package exchange // import "github.com/go-aer/daq/internal/exchange"

import (
	"sync/atomic"
	"time"

	"github.com/go-daq/tdaq/log"

	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/internal/ring"
)

// Exchange couples the producer and consumer sides of the acquisition
// pipeline. Ordinary containers are dropped when the consumer lags;
// containers marked must-deliver are retried until the consumer takes
// them or the acquisition stops.
type Exchange struct {
	ring     *ring.Buffer[*aer.Container]
	blocking atomic.Bool

	incr func()
	decr func()

	msg log.MsgStream
}

// New returns an exchange over a ring of the given capacity.
// The optional incr and decr callbacks run after a container enters and
// leaves the ring, respectively.
func New(capacity int, incr, decr func(), msg log.MsgStream) *Exchange {
	return &Exchange{
		ring: ring.New[*aer.Container](capacity),
		incr: incr,
		decr: decr,
		msg:  msg,
	}
}

// SetBlocking switches the full-buffer policy for ordinary containers
// between dropping (false, the default) and waiting for free space.
func (x *Exchange) SetBlocking(v bool) { x.blocking.Store(v) }

// Blocking reports the current full-buffer policy.
func (x *Exchange) Blocking() bool { return x.blocking.Load() }

// Put offers a container to the consumer. Containers with mustDeliver
// set are never dropped: Put retries while running reports true.
// It reports whether the container was delivered.
func (x *Exchange) Put(c *aer.Container, mustDeliver bool, running func() bool) bool {
	if x.ring.Put(c) {
		if x.incr != nil {
			x.incr()
		}
		return true
	}

	if !mustDeliver && !x.blocking.Load() {
		x.msg.Infof("exchange: consumer lagging, dropping container with %d events", c.EventCount())
		return false
	}

	for running() {
		time.Sleep(500 * time.Microsecond)
		if x.ring.Put(c) {
			if x.incr != nil {
				x.incr()
			}
			return true
		}
	}
	return false
}

// Get removes the oldest pending container, nil when none is pending.
// The decrement callback has run by the time Get returns.
func (x *Exchange) Get() *aer.Container {
	c, ok := x.ring.Get()
	if !ok {
		return nil
	}
	if x.decr != nil {
		x.decr()
	}
	return c
}

// Len returns the number of pending containers.
func (x *Exchange) Len() int { return x.ring.Len() }

// Drain empties the ring, passing each pending container to free (which
// may be nil) and running the decrement callback for each.
func (x *Exchange) Drain(free func(*aer.Container)) {
	for {
		c, ok := x.ring.Get()
		if !ok {
			return
		}
		if x.decr != nil {
			x.decr()
		}
		if free != nil {
			free(c)
		}
	}
}
