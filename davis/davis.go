// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package davis acquires data from DAVIS event cameras: it decodes the
// 16-bit AER event stream into polarity, special, frame and IMU
// packets, reconstructs timestamps across counter wraps, assembles APS
// frames with correlated double sampling and hands sealed packet
// containers to the consumer through a bounded exchange.
package davis // import "github.com/go-aer/daq/davis"

import (
	"golang.org/x/xerrors"

	"github.com/go-aer/daq/davis/internal/regs"
	"github.com/go-aer/daq/transport"
)

const (
	// adcDepth is the bit depth of the APS ADC samples.
	adcDepth = 10
	// adcMax is the largest valid ADC sample.
	adcMax = (1 << adcDepth) - 1
	// resetFloor is the reset-sample level under which a pixel is
	// treated as overexposed.
	resetFloor = 384

	// imuTotalCount is the number of 8-bit fields in a complete IMU
	// burst.
	imuTotalCount = 14
)

// Info describes a DAVIS camera as read from its configuration
// registers at open time.
type Info struct {
	DeviceID     int16
	LogicVersion uint32
	ChipID       uint32
	Master       bool

	DVSSizeX uint16
	DVSSizeY uint16
	APSSizeX uint16
	APSSizeY uint16

	DVSInvertXY bool

	APSFlipX    bool
	APSFlipY    bool
	APSInvertXY bool
	APSColor    bool

	APSGlobalShutter bool

	IMUFlipX bool
	IMUFlipY bool
	IMUFlipZ bool
}

func readInfo(bus transport.RegisterBus, id int16) (Info, error) {
	info := Info{DeviceID: id}

	type reg struct {
		mod, par uint8
		dst      *uint32
	}
	var (
		master, dvsOrient, apsOrient, imuOrient uint32
		dvsX, dvsY, apsX, apsY, color, gshutter uint32
	)
	for _, r := range []reg{
		{regs.SysInfo, regs.SysInfoLogicVersion, &info.LogicVersion},
		{regs.SysInfo, regs.SysInfoChipIdentifier, &info.ChipID},
		{regs.SysInfo, regs.SysInfoDeviceIsMaster, &master},
		{regs.DVS, regs.DVSSizeColumns, &dvsX},
		{regs.DVS, regs.DVSSizeRows, &dvsY},
		{regs.DVS, regs.DVSOrientationInfo, &dvsOrient},
		{regs.APS, regs.APSSizeColumns, &apsX},
		{regs.APS, regs.APSSizeRows, &apsY},
		{regs.APS, regs.APSOrientationInfo, &apsOrient},
		{regs.APS, regs.APSColorFilter, &color},
		{regs.APS, regs.APSGlobalShutter, &gshutter},
		{regs.IMU, regs.IMUOrientationInfo, &imuOrient},
	} {
		v, err := bus.ReadRegister(r.mod, r.par)
		if err != nil {
			return Info{}, xerrors.Errorf(
				"davis: could not read register (module=%d, param=%d): %w",
				r.mod, r.par, err,
			)
		}
		*r.dst = v
	}

	info.Master = master != 0
	info.DVSSizeX = uint16(dvsX)
	info.DVSSizeY = uint16(dvsY)
	info.APSSizeX = uint16(apsX)
	info.APSSizeY = uint16(apsY)
	info.DVSInvertXY = dvsOrient&regs.OrientInvertXY != 0
	info.APSFlipX = apsOrient&regs.OrientFlipX != 0
	info.APSFlipY = apsOrient&regs.OrientFlipY != 0
	info.APSInvertXY = apsOrient&regs.OrientInvertXY != 0
	info.APSColor = color != 0
	info.APSGlobalShutter = gshutter != 0
	info.IMUFlipX = imuOrient&regs.OrientIMUFlipX != 0
	info.IMUFlipY = imuOrient&regs.OrientIMUFlipY != 0
	info.IMUFlipZ = imuOrient&regs.OrientIMUFlipZ != 0

	if info.DVSSizeX == 0 || info.DVSSizeY == 0 {
		return Info{}, xerrors.Errorf("davis: device reports a zero-sized DVS array")
	}

	return info, nil
}
