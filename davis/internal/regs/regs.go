// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regs enumerates the configuration register map of DAVIS
// cameras: module numbers and the parameter addresses within each
// module used by this package.
package regs // import "github.com/go-aer/daq/davis/internal/regs"

// Configuration modules.
const (
	Mux      uint8 = 0
	DVS      uint8 = 1
	APS      uint8 = 2
	IMU      uint8 = 3
	ExtInput uint8 = 4
	Bias     uint8 = 5
	SysInfo  uint8 = 6
	USB      uint8 = 9
)

// SysInfo parameters.
const (
	SysInfoLogicVersion   uint8 = 0
	SysInfoChipIdentifier uint8 = 1
	SysInfoDeviceIsMaster uint8 = 2
	SysInfoLogicClock     uint8 = 3
	SysInfoADCClock       uint8 = 4
)

// DVS parameters.
const (
	DVSSizeColumns     uint8 = 0
	DVSSizeRows        uint8 = 1
	DVSOrientationInfo uint8 = 2
	DVSRun             uint8 = 3
)

// DVS hardware pixel-filter parameters. Eight (row, column) slots;
// slot i lives at (FilterPixel0Row + 2*i, FilterPixel0Column + 2*i).
const (
	DVSFilterPixel0Row    uint8 = 32
	DVSFilterPixel0Column uint8 = 33

	DVSFilterPixelSlots = 8
)

// APS parameters.
const (
	APSSizeColumns     uint8 = 0
	APSSizeRows        uint8 = 1
	APSOrientationInfo uint8 = 2
	APSColorFilter     uint8 = 3
	APSRun             uint8 = 4
	APSGlobalShutter   uint8 = 8
)

// IMU parameters.
const (
	IMUOrientationInfo uint8 = 1
	IMURun             uint8 = 2
	IMUAccelFullScale  uint8 = 5
	IMUGyroFullScale   uint8 = 6
)

// Orientation-info bit flags, shared by the DVS, APS and IMU modules.
const (
	OrientFlipX    uint32 = 1 << 0
	OrientFlipY    uint32 = 1 << 1
	OrientInvertXY uint32 = 1 << 2

	// IMU orientation uses the three bits as per-axis sign flips.
	OrientIMUFlipX uint32 = 1 << 0
	OrientIMUFlipY uint32 = 1 << 1
	OrientIMUFlipZ uint32 = 1 << 2
)
