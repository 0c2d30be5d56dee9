// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"encoding/binary"

	"github.com/go-daq/tdaq/log"

	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/internal/containers"
	"github.com/go-aer/daq/internal/dvsnoise"
	"github.com/go-aer/daq/internal/exchange"
	"github.com/go-aer/daq/internal/timestamps"
)

// 16-bit AER unit layout: the top bit selects a timestamp unit (low 15
// bits of the device counter); event units carry a 3-bit code and a
// 12-bit data field.
const (
	unitTimestamp = 0x8000
	unitCodeShift = 12
	unitCodeMask  = 0x07
	unitDataMask  = 0x0FFF
)

// Event unit codes.
const (
	codeSpecial   = 0
	codeYAddr     = 1
	codeXAddrOff  = 2
	codeXAddrOn   = 3
	codeADCSample = 4
	codeMisc8     = 5
	codeMisc10    = 6
	codeWrap      = 7
)

// Special unit sub-codes.
const (
	specialReserved       = 0
	specialTSReset        = 1
	specialExtFalling     = 2
	specialExtRising      = 3
	specialExtPulse       = 4
	specialIMUStart       = 5
	specialIMUEnd         = 7
	specialFrameStartGS   = 8
	specialFrameStartRS   = 9
	specialFrameEnd       = 10
	specialColResetStart  = 11
	specialColSignalStart = 12
	specialColEnd         = 13
	specialExposureStart  = 14
	specialExposureEnd    = 15
	specialExtGenFalling  = 16
	specialExtGenRising   = 17
)

// translator decodes the 16-bit AER stream of one device. It is not
// safe for concurrent use: one translator is driven by exactly one
// acquisition goroutine.
type translator struct {
	src int16
	msg log.MsgStream
	x   *exchange.Exchange
	gen *containers.Generation
	ts  timestamps.State

	dvs struct {
		// stream-order array dimensions (swapped when the device
		// inverts its axes).
		sizeX, sizeY uint16
		invertXY     bool
		lastY        uint16
		lastYTS      aer.Timestamp
		gotY         bool
	}
	aps apsState
	imu imuState

	special  *aer.Packet[aer.Special]
	polarity *aer.Packet[aer.Polarity]
	frames   *aer.Packet[aer.Frame]
	imu6     *aer.Packet[aer.IMU6]

	trainer *dvsnoise.Trainer

	running          func() bool
	onHotPixels      func([]dvsnoise.Pixel)
	onTimestampReset func()
}

// translate decodes one raw buffer from the device. It returns
// immediately once the running flag is down so no event is ever
// emitted after shutdown.
func (tr *translator) translate(buf []byte) {
	if !tr.running() {
		return
	}
	if len(buf)%2 != 0 {
		tr.msg.Warnf("davis: buffer length %d is not a multiple of the unit width, truncating", len(buf))
		buf = buf[:len(buf)-len(buf)%2]
	}
	for i := 0; i < len(buf); i += 2 {
		tr.decode(binary.LittleEndian.Uint16(buf[i : i+2]))
	}
}

func (tr *translator) decode(unit uint16) {
	var (
		tsReset bool
		bigWrap bool
	)
	switch {
	case unit&unitTimestamp != 0:
		tr.ts.Update(unit&^uint16(unitTimestamp), tr.msg)
	default:
		code := uint8(unit>>unitCodeShift) & unitCodeMask
		data := unit & unitDataMask
		switch code {
		case codeSpecial:
			tsReset = tr.specialUnit(data)
		case codeYAddr:
			tr.yAddress(data)
		case codeXAddrOff, codeXAddrOn:
			tr.xAddress(data, code == codeXAddrOn)
		case codeADCSample:
			tr.aps.sample(tr, data)
		case codeMisc8:
			tr.misc8(data)
		case codeMisc10:
			tr.misc10(data)
		case codeWrap:
			bigWrap = tr.wrap(data)
		}
	}
	tr.commitCheck(tsReset, bigWrap)
}

// specialUnit dispatches a special marker unit. It reports whether the
// unit commands a timestamp reset, which the commit path handles.
func (tr *translator) specialUnit(data uint16) bool {
	switch data {
	case specialReserved:
		tr.msg.Errorf("davis: caught reserved special event")
	case specialTSReset:
		return true
	case specialExtFalling:
		tr.emitSpecial(aer.ExternalInputFallingEdge, 0)
	case specialExtRising:
		tr.emitSpecial(aer.ExternalInputRisingEdge, 0)
	case specialExtPulse:
		tr.emitSpecial(aer.ExternalInputPulse, 0)
	case specialIMUStart:
		tr.imu.start(tr)
	case specialIMUEnd:
		tr.imu.end(tr)
	case specialFrameStartGS:
		tr.aps.frameStart(tr, true)
	case specialFrameStartRS:
		tr.aps.frameStart(tr, false)
	case specialFrameEnd:
		tr.aps.frameEnd(tr)
	case specialColResetStart:
		tr.aps.columnStart(tr, phaseReset)
	case specialColSignalStart:
		tr.aps.columnStart(tr, phaseSignal)
	case specialColEnd:
		tr.aps.columnEnd(tr)
	case specialExposureStart:
		tr.aps.exposureStart(tr)
	case specialExposureEnd:
		tr.aps.exposureEnd(tr)
	case specialExtGenFalling:
		tr.emitSpecial(aer.ExternalGeneratorFallingEdge, 0)
	case specialExtGenRising:
		tr.emitSpecial(aer.ExternalGeneratorRisingEdge, 0)
	default:
		tr.msg.Errorf("davis: caught special event %d that can't be handled", data)
	}
	return false
}

func (tr *translator) yAddress(data uint16) {
	if data >= tr.dvs.sizeY {
		tr.msg.Warnf("davis: DVS row address %d out of range (max %d), dropping", data, tr.dvs.sizeY-1)
		return
	}
	if tr.dvs.gotY {
		// two row addresses without an interleaved column: the stale
		// row is surfaced as a row-only marker.
		tr.specialPacket().Append(aer.Special{
			TS:   tr.dvs.lastYTS,
			Kind: aer.DVSRowOnly,
			Data: uint32(tr.dvs.lastY),
		})
	}
	tr.dvs.lastY = data
	tr.dvs.lastYTS = aer.Timestamp(tr.ts.Current)
	tr.dvs.gotY = true
}

func (tr *translator) xAddress(data uint16, on bool) {
	if data >= tr.dvs.sizeX {
		tr.msg.Warnf("davis: DVS column address %d out of range (max %d), dropping", data, tr.dvs.sizeX-1)
		return
	}
	x, y := data, tr.dvs.lastY
	if tr.dvs.invertXY {
		x, y = y, x
	}
	tr.polarityPacket().Append(aer.Polarity{
		TS: aer.Timestamp(tr.ts.Current),
		X:  x,
		Y:  y,
		On: on,
	})
	tr.dvs.gotY = false
}

func (tr *translator) misc8(data uint16) {
	code := uint8(data>>8) & 0x0F
	v := uint8(data)
	switch code {
	case 0:
		tr.imu.byte(tr, v)
	case 1:
		tr.aps.roiTmp = uint16(v) << 8
	case 2:
		tr.aps.roiField(tr.msg, tr.aps.roiTmp|uint16(v))
	case 3:
		tr.imu.configure(tr, v)
	default:
		tr.msg.Errorf("davis: caught Misc8 event with unknown code %d", code)
	}
}

func (tr *translator) misc10(data uint16) {
	code := uint8(data>>10) & 0x03
	v := data & 0x03FF
	switch code {
	case 0:
		tr.aps.exposureChunk(v)
	default:
		tr.msg.Errorf("davis: caught Misc10 event with unknown code %d", code)
	}
}

func (tr *translator) wrap(data uint16) bool {
	// the wrap marker belongs to the epoch that just ended.
	overflow := tr.ts.WrapOverflow
	big := tr.ts.Wrap(data, tr.msg)
	if big {
		tr.msg.Infof("davis: timestamp epoch overflow, starting epoch %d", tr.ts.WrapOverflow)
		if tr.special == nil {
			tr.special = aer.NewPacket[aer.Special](aer.SpecialType, tr.src, overflow, 8)
		}
		tr.special.EnsureSpace(1)
		tr.special.Append(aer.Special{
			TS:   aer.MaxTimestamp,
			Kind: aer.TimestampWrap,
		})
	}
	return big
}

func (tr *translator) emitSpecial(kind aer.SpecialKind, data uint32) {
	tr.specialPacket().Append(aer.Special{
		TS:   aer.Timestamp(tr.ts.Current),
		Kind: kind,
		Data: data,
	})
}

func (tr *translator) specialPacket() *aer.Packet[aer.Special] {
	if tr.special == nil {
		tr.special = aer.NewPacket[aer.Special](aer.SpecialType, tr.src, tr.ts.WrapOverflow, 128)
	}
	tr.special.EnsureSpace(1)
	return tr.special
}

func (tr *translator) polarityPacket() *aer.Packet[aer.Polarity] {
	if tr.polarity == nil {
		tr.polarity = aer.NewPacket[aer.Polarity](aer.PolarityType, tr.src, tr.ts.WrapOverflow, 1024)
	}
	tr.polarity.EnsureSpace(1)
	return tr.polarity
}

func (tr *translator) framePacket() *aer.Packet[aer.Frame] {
	if tr.frames == nil {
		tr.frames = aer.NewPacket[aer.Frame](aer.FrameType, tr.src, tr.ts.WrapOverflow, 4)
	}
	tr.frames.EnsureSpace(1)
	return tr.frames
}

func (tr *translator) imuPacket() *aer.Packet[aer.IMU6] {
	if tr.imu6 == nil {
		tr.imu6 = aer.NewPacket[aer.IMU6](aer.IMU6Type, tr.src, tr.ts.WrapOverflow, 32)
	}
	tr.imu6.EnsureSpace(1)
	return tr.imu6
}

// commitCheck evaluates the container commit triggers after every
// decoded unit.
func (tr *translator) commitCheck(tsReset, bigWrap bool) {
	switch {
	case tsReset:
		// seal whatever predates the reset, then hand over an isolated
		// container carrying only the reset marker. Both must reach
		// the consumer or its timestamp model breaks.
		tr.commit(true)
		tr.ts.Reset()
		tr.gen.ResetTimestamp()

		pkt := aer.NewPacket[aer.Special](aer.SpecialType, tr.src, 0, 1)
		pkt.Append(aer.Special{TS: aer.MaxTimestamp, Kind: aer.TimestampReset})
		c := aer.NewContainer()
		c.SetPacket(pkt)
		tr.x.Put(c, true, tr.running)

		tr.aps.ignore = true
		tr.imu.ignore = true
		if tr.onTimestampReset != nil {
			tr.onTimestampReset()
		}
		return

	case bigWrap:
		tr.commit(true)
		tr.aps.ignore = true
		tr.imu.ignore = true
		return
	}

	full := aer.FullTimestamp(tr.ts.WrapOverflow, aer.Timestamp(tr.ts.Current))
	tr.gen.InitTimestamp(full)
	if tr.sizeDue() || tr.gen.IntervalDue(full) {
		tr.commit(false)
	}
}

func (tr *translator) sizeDue() bool {
	switch {
	case tr.special != nil && tr.gen.SizeDue(tr.special.Len()):
		return true
	case tr.polarity != nil && tr.gen.SizeDue(tr.polarity.Len()):
		return true
	case tr.frames != nil && tr.gen.SizeDue(tr.frames.Len()):
		return true
	case tr.imu6 != nil && tr.gen.SizeDue(tr.imu6.Len()):
		return true
	}
	return false
}

// flush seals whatever the stream left behind. It runs when the data
// source ends cleanly, so replayed captures deliver their tail.
func (tr *translator) flush() {
	tr.commit(true)
}

// commit detaches every non-empty packet into the current container and
// hands it to the exchange. Empty packets stay open and are reused by
// the next cycle.
func (tr *translator) commit(mustDeliver bool) {
	if tr.polarity != nil && tr.polarity.Len() > 0 {
		tr.observeAutoTrain(tr.polarity)
		tr.gen.Container().SetPacket(tr.polarity)
		tr.polarity = nil
	}
	if tr.special != nil && tr.special.Len() > 0 {
		tr.gen.Container().SetPacket(tr.special)
		tr.special = nil
	}
	if tr.frames != nil && tr.frames.Len() > 0 {
		tr.gen.Container().SetPacket(tr.frames)
		tr.frames = nil
	}
	if tr.imu6 != nil && tr.imu6.Len() > 0 {
		tr.gen.Container().SetPacket(tr.imu6)
		tr.imu6 = nil
	}

	c := tr.gen.Commit()
	if c == nil {
		return
	}
	tr.x.Put(c, mustDeliver, tr.running)
}
