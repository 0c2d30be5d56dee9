// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"os"

	"github.com/go-daq/tdaq/log"
)

type config struct {
	msg log.MsgStream

	ringCapacity  int
	maxPacketSize int
	interval      int64 // µs
	blocking      bool

	autoTrain       bool
	autoTrainEvents int

	notifyIncrease func()
	notifyDecrease func()
}

func newConfig() config {
	return config{
		msg:             log.NewMsgStream("davis", log.LvlInfo, os.Stdout),
		ringCapacity:    64,
		maxPacketSize:   4096,
		interval:        10000,
		autoTrainEvents: 100000,
	}
}

// Option configures a Device.
type Option func(*config)

// WithMsgStream sets the log stream used by the device.
func WithMsgStream(msg log.MsgStream) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithRingCapacity sets the number of containers the exchange buffers
// between producer and consumer.
func WithRingCapacity(n int) Option {
	return func(cfg *config) {
		cfg.ringCapacity = n
	}
}

// WithMaxPacketSize sets the per-packet event count that forces a
// container commit. Zero disables size-based commits.
func WithMaxPacketSize(n int) Option {
	return func(cfg *config) {
		cfg.maxPacketSize = n
	}
}

// WithInterval sets the container commit interval in microseconds of
// stream time. Zero disables interval-based commits.
func WithInterval(usec int64) Option {
	return func(cfg *config) {
		cfg.interval = usec
	}
}

// WithBlockingExchange makes the producer wait for ring space instead
// of dropping ordinary containers.
func WithBlockingExchange(v bool) Option {
	return func(cfg *config) {
		cfg.blocking = v
	}
}

// WithAutoTrain enables hot-pixel auto-training over the first n
// polarity events of the stream.
func WithAutoTrain(n int) Option {
	return func(cfg *config) {
		cfg.autoTrain = true
		cfg.autoTrainEvents = n
	}
}

// WithNotify registers the occupancy callbacks run when a container
// enters (incr) and leaves (decr) the exchange.
func WithNotify(incr, decr func()) Option {
	return func(cfg *config) {
		cfg.notifyIncrease = incr
		cfg.notifyDecrease = decr
	}
}
