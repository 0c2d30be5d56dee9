// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"github.com/go-aer/daq/davis/internal/regs"
	"github.com/go-aer/daq/transport"
)

// PrimeRegisters fills m with the register set describing a camera of
// the given geometry, so a raw capture can be replayed through Open
// without hardware on the bus.
func PrimeRegisters(m *transport.RegisterMap, dvsX, dvsY, apsX, apsY uint16) {
	type reg struct {
		mod, par uint8
		val      uint32
	}
	for _, r := range []reg{
		{regs.SysInfo, regs.SysInfoLogicVersion, 18},
		{regs.SysInfo, regs.SysInfoChipIdentifier, 1},
		{regs.SysInfo, regs.SysInfoDeviceIsMaster, 1},
		{regs.DVS, regs.DVSSizeColumns, uint32(dvsX)},
		{regs.DVS, regs.DVSSizeRows, uint32(dvsY)},
		{regs.DVS, regs.DVSOrientationInfo, 0},
		{regs.APS, regs.APSSizeColumns, uint32(apsX)},
		{regs.APS, regs.APSSizeRows, uint32(apsY)},
		{regs.APS, regs.APSOrientationInfo, 0},
		{regs.APS, regs.APSColorFilter, 0},
		{regs.APS, regs.APSGlobalShutter, 1},
		{regs.IMU, regs.IMUOrientationInfo, 0},
		{regs.IMU, regs.IMUAccelFullScale, 0},
		{regs.IMU, regs.IMUGyroFullScale, 0},
	} {
		_ = m.WriteRegister(r.mod, r.par, r.val)
	}
}
