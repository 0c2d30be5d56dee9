// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timestamps reconstructs monotonic device timestamps from the
// wrapped counters carried on the event stream.
package timestamps // import "github.com/go-aer/daq/internal/timestamps"

import (
	"math"

	"github.com/go-daq/tdaq/log"
)

// WrapAdd is the value accumulated by one full wrap of the 15-bit
// device timestamp counter.
const WrapAdd = 0x8000

// State tracks the reconstruction of 32-bit microsecond timestamps
// from 15-bit device counter values plus explicit wrap events.
type State struct {
	Current      int32
	Last         int32
	WrapAdd      int32
	WrapOverflow int32
}

// Update absorbs a raw 15-bit counter value. Timestamps must never run
// backwards within an epoch; regressions are clamped and logged.
func (s *State) Update(raw uint16, msg log.MsgStream) {
	s.Last = s.Current
	s.Current = s.WrapAdd + int32(raw)
	s.checkMonotonic(msg)
}

// Wrap absorbs a wrap event covering mult consecutive counter wraps.
// It reports whether the accumulated wrap base overflowed the 32-bit
// timestamp range, starting a new time epoch.
func (s *State) Wrap(mult uint16, msg log.MsgStream) (bigWrap bool) {
	jump := int64(mult) * WrapAdd
	sum := int64(s.WrapAdd) + jump
	if sum > math.MaxInt32 {
		s.WrapAdd = int32(sum - math.MaxInt32 - 1)
		s.Last = 0
		s.Current = s.WrapAdd
		s.WrapOverflow++
		return true
	}
	s.WrapAdd = int32(sum)
	s.Last = s.Current
	s.Current = s.WrapAdd
	s.checkMonotonic(msg)
	return false
}

// Reset zeroes the whole reconstruction state, as commanded by a
// timestamp-reset event.
func (s *State) Reset() {
	s.Current = 0
	s.Last = 0
	s.WrapAdd = 0
	s.WrapOverflow = 0
}

func (s *State) checkMonotonic(msg log.MsgStream) {
	if s.Current >= s.Last {
		return
	}
	if msg != nil {
		msg.Errorf(
			"timestamps: non-monotonic timestamp detected: last=%d, current=%d, difference=%d",
			s.Last, s.Current, s.Last-s.Current,
		)
	}
	s.Current = s.Last
}

// SubReference resolves the two-level timestamps of the MIPI protocol:
// a millisecond reference broadcast on the stream plus a 10-bit
// microsecond sub-counter carried by column events.
type SubReference struct {
	// Reference is the active reference, in microseconds.
	Reference int64
	// Pending is the last reference received on the stream, taken into
	// use at the next sub-counter value.
	Pending int64
	// LastSub is the last sub-counter value seen.
	LastSub uint16
}

// SetReference records a new millisecond reference from the stream.
func (r *SubReference) SetReference(ms uint32) {
	r.Pending = int64(ms) * 1000
}

// Resolve combines the active reference with a 10-bit sub-counter
// value into a full microsecond timestamp. A sub-counter rollover
// without an interleaved reference update means a lost reference; the
// active one is advanced by one millisecond to compensate.
func (r *SubReference) Resolve(sub uint16) int64 {
	if sub < r.LastSub && r.Pending == r.Reference {
		r.Reference += 1000
		r.Pending = r.Reference
	} else if r.Pending != r.Reference {
		r.Reference = r.Pending
	}
	r.LastSub = sub
	return r.Reference + int64(sub)
}
