// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aer describes the events produced by address-event
// representation (AER) vision sensors: DVS polarity events, protocol
// marker events, APS frames and IMU samples, together with the packets
// and packet containers that batch them on their way from the decoder
// to the consumer.
package aer // import "github.com/go-aer/daq/aer"

import "math"

// Timestamp is a microsecond timestamp reconstructed from the device
// clock. It is 32 bits wide; rollovers of the accumulated wrap base
// past MaxTimestamp are tracked out-of-band as time-epoch overflows
// (see Packet.TimeOverflow).
type Timestamp int32

// MaxTimestamp is the sentinel timestamp carried by timestamp-reset and
// big-wrap marker events.
const MaxTimestamp = Timestamp(math.MaxInt32)

// FullTimestamp expands a 32-bit timestamp with its epoch overflow
// counter into a single monotonic 64-bit microsecond value.
func FullTimestamp(overflow int32, ts Timestamp) int64 {
	return int64(overflow)<<31 | int64(ts)
}

// EventType tags the kind of events held by a packet.
type EventType uint8

const (
	SpecialType EventType = iota
	PolarityType
	FrameType
	IMU6Type

	NumEventTypes
)

func (t EventType) String() string {
	switch t {
	case SpecialType:
		return "special"
	case PolarityType:
		return "polarity"
	case FrameType:
		return "frame"
	case IMU6Type:
		return "imu6"
	}
	return "unknown"
}

// SpecialKind enumerates the protocol markers carried by Special events.
type SpecialKind uint8

const (
	TimestampWrap SpecialKind = iota
	TimestampReset
	ExternalInputRisingEdge
	ExternalInputFallingEdge
	ExternalInputPulse
	DVSRowOnly
	ExternalGeneratorRisingEdge
	ExternalGeneratorFallingEdge
	APSFrameStart
	APSFrameEnd
	APSExposureStart
	APSExposureEnd
	EventReadoutStart
)

func (k SpecialKind) String() string {
	switch k {
	case TimestampWrap:
		return "timestamp-wrap"
	case TimestampReset:
		return "timestamp-reset"
	case ExternalInputRisingEdge:
		return "ext-input-rising-edge"
	case ExternalInputFallingEdge:
		return "ext-input-falling-edge"
	case ExternalInputPulse:
		return "ext-input-pulse"
	case DVSRowOnly:
		return "dvs-row-only"
	case ExternalGeneratorRisingEdge:
		return "ext-gen-rising-edge"
	case ExternalGeneratorFallingEdge:
		return "ext-gen-falling-edge"
	case APSFrameStart:
		return "aps-frame-start"
	case APSFrameEnd:
		return "aps-frame-end"
	case APSExposureStart:
		return "aps-exposure-start"
	case APSExposureEnd:
		return "aps-exposure-end"
	case EventReadoutStart:
		return "event-readout-start"
	}
	return "unknown"
}

// Event is implemented by all AER event records.
type Event interface {
	// Time returns the timestamp that orders the event within its
	// packet. For frames this is the start-of-exposure timestamp.
	Time() Timestamp
}

// Polarity is a single DVS pixel event: the pixel at (X,Y) crossed its
// contrast threshold, brightening (On) or darkening (!On).
type Polarity struct {
	TS Timestamp
	X  uint16
	Y  uint16
	On bool
}

func (ev Polarity) Time() Timestamp { return ev.TS }

// Special is a protocol marker event, optionally carrying 32 bits of
// marker-specific payload.
type Special struct {
	TS   Timestamp
	Kind SpecialKind
	Data uint32
}

func (ev Special) Time() Timestamp { return ev.TS }

// IMU6 is one complete 6-axis inertial sample: acceleration in g,
// angular velocity in °/s and die temperature in °C.
type IMU6 struct {
	TS     Timestamp
	AccelX float32
	AccelY float32
	AccelZ float32
	GyroX  float32
	GyroY  float32
	GyroZ  float32
	Temp   float32
}

func (ev IMU6) Time() Timestamp { return ev.TS }

// Frame is one complete APS readout: the correlated-double-sampled
// pixel array for the active region of interest, with the four
// timestamps bracketing its acquisition.
type Frame struct {
	TSStartOfFrame    Timestamp
	TSStartOfExposure Timestamp
	TSEndOfExposure   Timestamp
	TSEndOfFrame      Timestamp

	PositionX uint16 // ROI origin, columns
	PositionY uint16 // ROI origin, rows
	Width     uint16
	Height    uint16
	Channels  uint8

	// Exposure is the device-measured exposure duration in ADC clock
	// cycles, when the protocol variant reports it, 0 otherwise.
	Exposure uint32

	// Pixels holds Width*Height*Channels samples, row-major, normalized
	// to 16-bit depth.
	Pixels []uint16
}

// Time returns the start-of-exposure timestamp: the instant frames are
// ordered (and interval-committed) by.
func (ev Frame) Time() Timestamp { return ev.TSStartOfExposure }
