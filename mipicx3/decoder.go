// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mipicx3

import (
	"encoding/binary"
	"math"

	"github.com/go-daq/tdaq/log"

	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/internal/containers"
	"github.com/go-aer/daq/internal/exchange"
	"github.com/go-aer/daq/internal/timestamps"
)

// translator decodes the 32-bit grouped AER stream of one CX3 bridge.
// Not safe for concurrent use.
type translator struct {
	src int16
	msg log.MsgStream
	x   *exchange.Exchange
	gen *containers.Generation

	ref      timestamps.SubReference
	current  int32
	last     int32
	overflow int32
	// no event may be emitted before the first timestamp reference.
	synced bool

	lastX uint16

	special  *aer.Packet[aer.Special]
	polarity *aer.Packet[aer.Polarity]

	running func() bool
}

// translate decodes one raw buffer from the bridge. It returns
// immediately once the running flag is down.
func (tr *translator) translate(buf []byte) {
	if !tr.running() {
		return
	}
	if len(buf)%4 != 0 {
		tr.msg.Warnf("mipicx3: buffer length %d is not a multiple of the unit width, truncating", len(buf))
		buf = buf[:len(buf)-len(buf)%4]
	}
	for i := 0; i < len(buf); i += 4 {
		tr.decode(binary.BigEndian.Uint32(buf[i : i+4]))
	}
}

func (tr *translator) decode(unit uint32) {
	bigWrap := false
	if unit&unitGroup != 0 {
		tr.group(unit)
	} else {
		// a unit may carry both markers: the column resolves against
		// the old reference, the new one applies from the next column.
		if unit&unitColumn != 0 {
			bigWrap = tr.column(unit)
		}
		if unit&unitTimestamp != 0 {
			tr.ref.SetReference(unit & timestampRefMask)
			tr.synced = true
		}
	}

	if bigWrap {
		tr.commit(true)
		return
	}
	full := aer.FullTimestamp(tr.overflow, aer.Timestamp(tr.current))
	tr.gen.InitTimestamp(full)
	if tr.sizeDue() || tr.gen.IntervalDue(full) {
		tr.commit(false)
	}
}

// group decodes a single-group event burst: one column-local group of
// eight rows, with the OFF presence mask in the high byte and the ON
// mask in the low byte, walked most significant bit first.
func (tr *translator) group(unit uint32) {
	if !tr.synced {
		return
	}
	if unit&unitMultiGroup != 0 {
		tr.msg.Errorf("mipicx3: multi-group unit 0x%08x not handled", unit)
		return
	}
	groupAddr := uint16((unit>>groupAddrShift)&groupAddrMask) * 8
	mask := unit & groupMask
	if mask == 0 {
		return
	}
	pkt := tr.polarityPacket()
	for i := uint(0); i < 16; i++ {
		if mask&(0x8000>>i) == 0 {
			continue
		}
		y := groupAddr + uint16(7-(i&7))
		if y >= SizeY {
			tr.msg.Warnf("mipicx3: DVS row address %d out of range (max %d), dropping", y, SizeY-1)
			continue
		}
		pkt.Append(aer.Polarity{
			TS: aer.Timestamp(tr.current),
			X:  tr.lastX,
			Y:  y,
			On: i >= 8,
		})
	}
}

// column decodes a column marker: the active column address, a 10-bit
// microsecond sub-timestamp and an optional start-of-frame flag. It
// reports whether the resolved time crossed into a new 32-bit epoch.
func (tr *translator) column(unit uint32) bool {
	if !tr.synced {
		return false
	}
	addr := uint16(unit & columnAddrMask)
	if addr >= SizeX {
		tr.msg.Warnf("mipicx3: DVS column address %d out of range (max %d), dropping", addr, SizeX-1)
		return false
	}
	tr.lastX = addr

	sub := uint16((unit >> columnSubShift) & columnSubMask)
	full := tr.ref.Resolve(sub)
	bigWrap := tr.updateTime(full)

	if (unit>>columnSOFShift)&1 != 0 {
		tr.specialPacket().Append(aer.Special{
			TS:   aer.Timestamp(tr.current),
			Kind: aer.EventReadoutStart,
		})
	}
	return bigWrap
}

// updateTime folds a full 64-bit microsecond time into the 32-bit
// timestamp plus epoch-overflow representation.
func (tr *translator) updateTime(full int64) bool {
	overflow := int32(full >> 31)
	current := int32(full & math.MaxInt32)

	if overflow != tr.overflow {
		tr.msg.Infof("mipicx3: timestamp epoch overflow, starting epoch %d", overflow)
		tr.specialPacket().Append(aer.Special{
			TS:   aer.MaxTimestamp,
			Kind: aer.TimestampWrap,
		})
		tr.overflow = overflow
		tr.last = 0
		tr.current = current
		return true
	}

	tr.last = tr.current
	tr.current = current
	if tr.current < tr.last {
		tr.msg.Errorf("mipicx3: non-monotonic timestamp detected: last=%d, current=%d, difference=%d",
			tr.last, tr.current, tr.last-tr.current,
		)
		tr.current = tr.last
	}
	return false
}

func (tr *translator) specialPacket() *aer.Packet[aer.Special] {
	if tr.special == nil {
		tr.special = aer.NewPacket[aer.Special](aer.SpecialType, tr.src, tr.overflow, 128)
	}
	tr.special.EnsureSpace(1)
	return tr.special
}

func (tr *translator) polarityPacket() *aer.Packet[aer.Polarity] {
	if tr.polarity == nil {
		tr.polarity = aer.NewPacket[aer.Polarity](aer.PolarityType, tr.src, tr.overflow, 1024)
	}
	tr.polarity.EnsureSpace(16)
	return tr.polarity
}

func (tr *translator) sizeDue() bool {
	switch {
	case tr.special != nil && tr.gen.SizeDue(tr.special.Len()):
		return true
	case tr.polarity != nil && tr.gen.SizeDue(tr.polarity.Len()):
		return true
	}
	return false
}

// flush seals whatever the stream left behind when the data source
// ends cleanly.
func (tr *translator) flush() {
	tr.commit(true)
}

func (tr *translator) commit(mustDeliver bool) {
	if tr.polarity != nil && tr.polarity.Len() > 0 {
		tr.gen.Container().SetPacket(tr.polarity)
		tr.polarity = nil
	}
	if tr.special != nil && tr.special.Len() > 0 {
		tr.gen.Container().SetPacket(tr.special)
		tr.special = nil
	}
	c := tr.gen.Commit()
	if c == nil {
		return
	}
	tr.x.Put(c, mustDeliver, tr.running)
}
