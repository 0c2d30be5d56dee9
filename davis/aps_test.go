// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-aer/daq/aer"
)

// apsFrameUnits encodes a complete 2x2 global-shutter readout with the
// given per-pixel reset and signal samples (row-major).
func apsFrameUnits(reset, signal [4]uint16) []uint16 {
	units := []uint16{
		evUnit(codeSpecial, specialFrameStartGS),
		evUnit(codeSpecial, specialExposureStart),
	}
	for col := 0; col < 2; col++ {
		units = append(units, evUnit(codeSpecial, specialColResetStart))
		for row := 0; row < 2; row++ {
			units = append(units, evUnit(codeADCSample, reset[row*2+col]))
		}
		units = append(units, evUnit(codeSpecial, specialColEnd))
	}
	units = append(units, evUnit(codeSpecial, specialExposureEnd))
	for col := 0; col < 2; col++ {
		units = append(units, evUnit(codeSpecial, specialColSignalStart))
		for row := 0; row < 2; row++ {
			units = append(units, evUnit(codeADCSample, signal[row*2+col]))
		}
		units = append(units, evUnit(codeSpecial, specialColEnd))
	}
	units = append(units, evUnit(codeSpecial, specialFrameEnd))
	return units
}

func TestAPSFrame(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.setROI(0, 0, 1, 1)

	units := []uint16{tsUnit(100)}
	units = append(units, apsFrameUnits(
		[4]uint16{1000, 900, 800, 700},
		[4]uint16{200, 400, 100, 700},
	)...)
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	frames := c.Frames()
	if frames == nil || frames.Len() != 1 {
		t.Fatalf("no frame emitted")
	}
	frame := frames.Events()[0]

	want := aer.Frame{
		TSStartOfFrame:    100,
		TSStartOfExposure: 100,
		TSEndOfExposure:   100,
		TSEndOfFrame:      100,
		Width:             2,
		Height:            2,
		Channels:          1,
		Pixels: []uint16{
			(1000 - 200) << 6,
			(900 - 400) << 6,
			(800 - 100) << 6,
			0, // signal equals reset: zero light
		},
	}
	if diff := cmp.Diff(want, frame); diff != "" {
		t.Fatalf("invalid frame: (-want +got)\n%s", diff)
	}

	// frame activity markers also appear as specials.
	kinds := make([]aer.SpecialKind, 0, 4)
	for _, ev := range c.Specials().Events() {
		kinds = append(kinds, ev.Kind)
	}
	wantKinds := []aer.SpecialKind{
		aer.APSFrameStart,
		aer.APSExposureStart,
		aer.APSExposureEnd,
		aer.APSFrameEnd,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("invalid frame markers: (-want +got)\n%s", diff)
	}
}

func TestAPSOverexposedPixels(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.setROI(0, 0, 1, 1)

	units := apsFrameUnits(
		// low reset level and zero signal both mean overexposure.
		[4]uint16{100, 1000, 1000, 1000},
		[4]uint16{50, 0, 600, 600},
	)
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	frame := c.Frames().Events()[0]
	want := []uint16{
		adcMax << 6, // reset below the settle floor
		adcMax << 6, // railed signal
		(1000 - 600) << 6,
		(1000 - 600) << 6,
	}
	if diff := cmp.Diff(want, frame.Pixels); diff != "" {
		t.Fatalf("invalid pixels: (-want +got)\n%s", diff)
	}
}

func TestAPSIncompleteFrameDiscarded(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.setROI(0, 0, 1, 1)

	// signal phase misses its second column.
	units := []uint16{
		evUnit(codeSpecial, specialFrameStartGS),
	}
	for col := 0; col < 2; col++ {
		units = append(units,
			evUnit(codeSpecial, specialColResetStart),
			evUnit(codeADCSample, 1000),
			evUnit(codeADCSample, 1000),
			evUnit(codeSpecial, specialColEnd),
		)
	}
	units = append(units,
		evUnit(codeSpecial, specialColSignalStart),
		evUnit(codeADCSample, 500),
		evUnit(codeADCSample, 500),
		evUnit(codeSpecial, specialColEnd),
		evUnit(codeSpecial, specialFrameEnd),
	)
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	if frames := c.Frames(); frames != nil {
		t.Fatalf("partial frame emitted: %v", frames.Events())
	}
}

func TestAPSFlips(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.flipX = true
	tr.aps.setROI(0, 0, 1, 1)

	units := apsFrameUnits(
		[4]uint16{1000, 1000, 1000, 1000},
		[4]uint16{900, 800, 700, 600},
	)
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	frame := c.Frames().Events()[0]
	// columns mirrored.
	want := []uint16{
		(1000 - 800) << 6,
		(1000 - 900) << 6,
		(1000 - 600) << 6,
		(1000 - 700) << 6,
	}
	if diff := cmp.Diff(want, frame.Pixels); diff != "" {
		t.Fatalf("invalid pixels: (-want +got)\n%s", diff)
	}
}

func TestAPSColorGlobalShutterFrame(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.sizeX, tr.aps.sizeY = 640, 640
	tr.aps.color = true
	tr.aps.invertXY = true
	tr.aps.setROI(0, 0, 639, 639)

	// color global-shutter readout: the signal scan comes first and is
	// stored, the reset scan then computes the sampled values. One
	// reset sample is raised to mark a single pixel.
	const (
		side   = 640
		sigVal = 100
		rstVal = 700
	)
	markCol, markRow := uint16(3), uint16(5)

	units := []uint16{
		tsUnit(100),
		evUnit(codeSpecial, specialFrameStartGS),
	}
	for col := uint16(0); col < side; col++ {
		units = append(units, evUnit(codeSpecial, specialColSignalStart))
		for row := uint16(0); row < side; row++ {
			units = append(units, evUnit(codeADCSample, sigVal))
		}
		units = append(units, evUnit(codeSpecial, specialColEnd))
	}
	for col := uint16(0); col < side; col++ {
		units = append(units, evUnit(codeSpecial, specialColResetStart))
		for row := uint16(0); row < side; row++ {
			v := uint16(rstVal)
			if col == markCol && row == markRow {
				v = 900
			}
			units = append(units, evUnit(codeADCSample, v))
		}
		units = append(units, evUnit(codeSpecial, specialColEnd))
	}
	units = append(units, evUnit(codeSpecial, specialFrameEnd))
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	frames := c.Frames()
	if frames == nil || frames.Len() != 1 {
		t.Fatalf("no frame emitted")
	}
	frame := frames.Events()[0]

	// the serpentine sub-pixel offsets of the color filter walk odd
	// rows up and even rows down, so the fifth sample of a column scan
	// lands on row 11; the swapped axes then put the marked pixel at
	// (x=11, y=3).
	markIdx := 3*side + 11
	for i, px := range frame.Pixels {
		want := uint16((rstVal - sigVal) << 6)
		if i == markIdx {
			want = (900 - sigVal) << 6
		}
		if px != want {
			t.Fatalf("invalid pixel %d: got=%d, want=%d", i, px, want)
		}
	}
}

func TestAPSInStreamROIUpdate(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.setROI(0, 0, 239, 179)

	// fields arrive as (high, low) byte pairs: start col=4, start
	// row=2, end col=5, end row=3.
	var units []uint16
	for _, field := range []uint16{4, 2, 5, 3} {
		units = append(units,
			evUnit(codeMisc8, 1<<8|field>>8),
			evUnit(codeMisc8, 2<<8|field&0xFF),
		)
	}
	tr.translate(rawBuf(units...))

	if got, want := tr.aps.startCol, uint16(4); got != want {
		t.Fatalf("invalid ROI start column: got=%d, want=%d", got, want)
	}
	if got, want := tr.aps.endRow, uint16(3); got != want {
		t.Fatalf("invalid ROI end row: got=%d, want=%d", got, want)
	}
	if got, want := tr.aps.expectedCountX, uint16(2); got != want {
		t.Fatalf("invalid expected columns: got=%d, want=%d", got, want)
	}
	if got, want := tr.aps.expectedCountY, uint16(2); got != want {
		t.Fatalf("invalid expected rows: got=%d, want=%d", got, want)
	}

	// the next frame uses the new geometry.
	units = apsFrameUnits(
		[4]uint16{1000, 1000, 1000, 1000},
		[4]uint16{500, 500, 500, 500},
	)
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	frame := c.Frames().Events()[0]
	if got, want := frame.PositionX, uint16(4); got != want {
		t.Fatalf("invalid frame position: got=%d, want=%d", got, want)
	}
	if got, want := frame.Width, uint16(2); got != want {
		t.Fatalf("invalid frame width: got=%d, want=%d", got, want)
	}
}

func TestAPSInvalidROIUpdateKept(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.setROI(0, 0, 9, 9)

	// end before start: rejected, previous ROI stays.
	var units []uint16
	for _, field := range []uint16{8, 8, 2, 2} {
		units = append(units,
			evUnit(codeMisc8, 1<<8|field>>8),
			evUnit(codeMisc8, 2<<8|field&0xFF),
		)
	}
	tr.translate(rawBuf(units...))

	if got, want := tr.aps.endCol, uint16(9); got != want {
		t.Fatalf("ROI changed by invalid update: got=%d, want=%d", got, want)
	}
}

func TestAPSAutoExposure(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.aps.setROI(0, 0, 1, 1)

	units := []uint16{
		evUnit(codeSpecial, specialFrameStartGS),
		// exposure 0x2_0155 delivered in 10-bit chunks, low first.
		evUnit(codeMisc10, 0x155),
		evUnit(codeMisc10, 0x200),
	}
	tr.translate(rawBuf(units...))
	if got, want := tr.aps.exposure, uint32(0x200<<10|0x155); got != want {
		t.Fatalf("invalid accumulated exposure: got=%#x, want=%#x", got, want)
	}
}
