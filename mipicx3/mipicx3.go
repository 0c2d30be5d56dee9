// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mipicx3 acquires data from DVS sensors attached through a
// MIPI CX3 bridge. The bridge speaks a 32-bit grouped AER protocol:
// multi-pixel event bursts, column markers carrying a 10-bit
// sub-timestamp and millisecond timestamp references.
package mipicx3 // import "github.com/go-aer/daq/mipicx3"

import (
	"os"

	"github.com/go-daq/tdaq/log"
)

// Sensor geometry of the CX3 bridge devices.
const (
	SizeX = 640
	SizeY = 480
)

// 32-bit unit layout.
const (
	unitGroup      = 0x80000000
	unitMultiGroup = 0x76000000
	unitColumn     = 0x04000000
	unitTimestamp  = 0x08000000

	groupAddrShift = 18
	groupAddrMask  = 0x3F
	groupMask      = 0xFFFF

	columnAddrMask   = 0x3FF
	columnSubShift   = 11
	columnSubMask    = 0x3FF
	columnSOFShift   = 21
	timestampRefMask = 0x3FFFFF
)

type config struct {
	msg log.MsgStream

	ringCapacity  int
	maxPacketSize int
	interval      int64 // µs
	blocking      bool
}

func newConfig() config {
	return config{
		msg:           log.NewMsgStream("mipicx3", log.LvlInfo, os.Stdout),
		ringCapacity:  64,
		maxPacketSize: 4096,
		interval:      10000,
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
