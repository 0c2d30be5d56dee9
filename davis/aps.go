// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"github.com/go-daq/tdaq/log"

	"github.com/go-aer/daq/aer"
)

type apsPhase int

const (
	phaseReset apsPhase = iota
	phaseSignal

	numPhases
)

func (p apsPhase) String() string {
	switch p {
	case phaseReset:
		return "reset"
	case phaseSignal:
		return "signal"
	}
	return "unknown"
}

// apsState reconstructs APS frames from the interleaved reset/signal
// column scans on the event stream. The first scan of each pixel is
// stored raw; the second computes the correlated-double-sampled value.
// Global-shutter color sensors read the signal scan first, all others
// the reset scan.
type apsState struct {
	ignore        bool
	globalShutter bool

	sizeX, sizeY           uint16
	flipX, flipY, invertXY bool
	color                  bool

	// active region of interest, in sensor coordinates.
	startCol, startRow uint16
	endCol, endRow     uint16
	// expected per-phase counters, in stream order.
	expectedCountX, expectedCountY uint16

	phase  apsPhase
	countX [numPhases]uint16
	countY [numPhases]uint16

	frame aer.Frame
	// raw samples of the first readout scan of the frame.
	stored []uint16

	// serpentine sub-pixel offset of color sensors.
	rgbOffset uint16
	rgbDown   bool

	// in-stream ROI update assembly: four big-endian fields.
	roiTmp    uint16
	roiFields [4]uint16
	roiIdx    int

	// auto-exposure accumulation, 10-bit chunks.
	exposure       uint32
	exposureChunks uint
}

// setROI installs a new region of interest and recomputes the expected
// per-phase counters.
func (a *apsState) setROI(startCol, startRow, endCol, endRow uint16) {
	a.startCol, a.startRow = startCol, startRow
	a.endCol, a.endRow = endCol, endRow

	w := endCol - startCol + 1
	h := endRow - startRow + 1
	if a.invertXY {
		a.expectedCountX, a.expectedCountY = h, w
	} else {
		a.expectedCountX, a.expectedCountY = w, h
	}
}

// roiField consumes one completed field of an in-stream ROI update:
// start column, start row, end column, end row, in that order.
func (a *apsState) roiField(msg log.MsgStream, v uint16) {
	a.roiFields[a.roiIdx] = v
	a.roiIdx++
	if a.roiIdx < len(a.roiFields) {
		return
	}
	a.roiIdx = 0

	sc, sr, ec, er := a.roiFields[0], a.roiFields[1], a.roiFields[2], a.roiFields[3]
	if sc > ec || sr > er || ec >= a.sizeX || er >= a.sizeY {
		msg.Errorf("davis: invalid APS ROI update (%d,%d)-(%d,%d), keeping previous", sc, sr, ec, er)
		return
	}
	a.setROI(sc, sr, ec, er)
	msg.Debugf("davis: APS ROI updated to (%d,%d)-(%d,%d)", sc, sr, ec, er)
}

func (a *apsState) exposureChunk(v uint16) {
	a.exposure |= uint32(v) << (10 * a.exposureChunks)
	a.exposureChunks++
}

func (a *apsState) frameStart(tr *translator, globalShutter bool) {
	a.ignore = false
	a.globalShutter = globalShutter
	a.phase = phaseReset
	for i := range a.countX {
		a.countX[i] = 0
		a.countY[i] = 0
	}
	a.exposure = 0
	a.exposureChunks = 0
	a.rgbOffset = 1
	a.rgbDown = false

	w := a.endCol - a.startCol + 1
	h := a.endRow - a.startRow + 1
	px, py := a.startCol, a.startRow
	if a.invertXY {
		w, h = h, w
		px, py = py, px
	}
	a.frame = aer.Frame{
		TSStartOfFrame: aer.Timestamp(tr.ts.Current),
		PositionX:      px,
		PositionY:      py,
		Width:          w,
		Height:         h,
		Channels:       1,
		Pixels:         make([]uint16, int(w)*int(h)),
	}
	a.stored = make([]uint16, len(a.frame.Pixels))

	tr.emitSpecial(aer.APSFrameStart, 0)
}

func (a *apsState) columnStart(tr *translator, phase apsPhase) {
	if a.ignore {
		return
	}
	a.phase = phase
	a.countY[phase] = 0
	a.rgbOffset = 1
	a.rgbDown = false
}

func (a *apsState) columnEnd(tr *translator) {
	if a.ignore {
		return
	}
	ph := a.phase
	if a.countY[ph] != a.expectedCountY {
		tr.msg.Errorf("davis: APS %s column %d ended with %d rows, expected %d",
			ph, a.countX[ph], a.countY[ph], a.expectedCountY,
		)
	}
	a.countX[ph]++
}

func (a *apsState) exposureStart(tr *translator) {
	if a.ignore {
		return
	}
	a.frame.TSStartOfExposure = aer.Timestamp(tr.ts.Current)
	tr.emitSpecial(aer.APSExposureStart, 0)
}

func (a *apsState) exposureEnd(tr *translator) {
	if a.ignore {
		return
	}
	a.frame.TSEndOfExposure = aer.Timestamp(tr.ts.Current)
	tr.emitSpecial(aer.APSExposureEnd, 0)
}

func (a *apsState) sample(tr *translator, data uint16) {
	if a.ignore {
		return
	}
	ph := a.phase
	// lost column markers leave the counters out of bounds; drop the
	// sample instead of corrupting a neighbor pixel.
	if a.countX[ph] >= a.expectedCountX || a.countY[ph] >= a.expectedCountY {
		return
	}

	xPos := a.countX[ph]
	if a.flipX {
		xPos = a.expectedCountX - 1 - xPos
	}
	yPos := a.countY[ph]
	if a.flipY {
		yPos = a.expectedCountY - 1 - yPos
	}
	// the serpentine offset applies in scan coordinates, before any
	// axis swap.
	if a.color {
		yPos += a.serpentine()
	}
	if a.invertXY {
		xPos, yPos = yPos, xPos
	}

	idx := int(yPos)*int(a.frame.Width) + int(xPos)
	if idx < len(a.frame.Pixels) {
		// global-shutter color sensors read the signal scan first, so
		// the stored and incoming samples swap roles.
		colorGS := a.color && a.globalShutter
		store := ph == phaseReset
		if colorGS {
			store = ph == phaseSignal
		}
		switch {
		case store:
			a.stored[idx] = data
		default:
			reset, signal := a.stored[idx], data
			if colorGS {
				reset, signal = data, a.stored[idx]
			}
			var v uint16
			switch {
			case reset < resetFloor || signal == 0:
				// overexposed pixel: the reset level never settled or
				// the signal railed.
				v = adcMax
			case reset < signal:
				v = 0
			default:
				v = reset - signal
				if v > adcMax {
					v = adcMax
				}
			}
			a.frame.Pixels[idx] = v << (16 - adcDepth)
		}
	}
	a.countY[ph]++
}

// serpentine returns the sub-pixel row offset of color sensors and
// advances the tracker.
func (a *apsState) serpentine() uint16 {
	off := a.rgbOffset
	if !a.rgbDown {
		a.rgbOffset++
		if a.rgbOffset == 321 {
			a.rgbDown = true
			a.rgbOffset = 318
		}
	} else {
		a.rgbOffset -= 3
	}
	return off
}

func (a *apsState) frameEnd(tr *translator) {
	if a.ignore {
		return
	}
	tr.emitSpecial(aer.APSFrameEnd, 0)
	a.frame.TSEndOfFrame = aer.Timestamp(tr.ts.Current)

	valid := true
	for ph := phaseReset; ph < numPhases; ph++ {
		if a.countX[ph] != a.expectedCountX {
			valid = false
		}
	}
	if !valid {
		tr.msg.Errorf("davis: incomplete frame discarded (reset=%d/%d, signal=%d/%d columns)",
			a.countX[phaseReset], a.expectedCountX,
			a.countX[phaseSignal], a.expectedCountX,
		)
		a.frame = aer.Frame{}
		a.stored = nil
		return
	}

	a.frame.Exposure = a.exposure
	tr.framePacket().Append(a.frame)
	a.frame = aer.Frame{}
	a.stored = nil
}
