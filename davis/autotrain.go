// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/davis/internal/regs"
	"github.com/go-aer/daq/internal/dvsnoise"
)

// observeAutoTrain feeds a polarity packet to the hot-pixel trainer
// right before the packet is detached into a container. Once training
// completes, the hottest coordinates are handed to the device for the
// hardware filter.
func (tr *translator) observeAutoTrain(pkt *aer.Packet[aer.Polarity]) {
	if tr.trainer == nil {
		return
	}
	for _, ev := range pkt.Events() {
		tr.trainer.Observe(ev)
	}
	if !tr.trainer.Done() {
		return
	}
	pixels := tr.trainer.Hottest(regs.DVSFilterPixelSlots)
	tr.trainer = nil
	if tr.onHotPixels != nil {
		tr.onHotPixels(pixels)
	}
}

// pushHotPixels writes the trained hot-pixel coordinates to the
// device's hardware filter slots. Unused slots are parked out of the
// pixel array so they match nothing.
func (dev *Device) pushHotPixels(pixels []dvsnoise.Pixel) {
	dev.msg.Infof("davis: hot-pixel training complete, filtering %d pixels", len(pixels))
	for i := 0; i < regs.DVSFilterPixelSlots; i++ {
		row, col := uint32(dev.info.DVSSizeY), uint32(dev.info.DVSSizeX)
		if i < len(pixels) {
			row, col = uint32(pixels[i].Y), uint32(pixels[i].X)
			if dev.info.DVSInvertXY {
				row, col = col, row
			}
		}
		rowPar := regs.DVSFilterPixel0Row + uint8(2*i)
		colPar := regs.DVSFilterPixel0Column + uint8(2*i)
		if err := dev.bus.WriteRegister(regs.DVS, rowPar, row); err != nil {
			dev.msg.Errorf("davis: could not write hot-pixel filter row %d: %+v", i, err)
			return
		}
		if err := dev.bus.WriteRegister(regs.DVS, colPar, col); err != nil {
			dev.msg.Errorf("davis: could not write hot-pixel filter column %d: %+v", i, err)
			return
		}
	}
}
