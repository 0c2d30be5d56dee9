// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import "github.com/go-aer/daq/aer"

// Sensor-presence bits of the in-stream IMU type/scale configuration.
const (
	imuTypeAccel = 1 << 0
	imuTypeGyro  = 1 << 1
	imuTypeTemp  = 1 << 2
)

// Field positions of the high/low byte pairs within an IMU burst.
const (
	imuFieldAccelX = 1
	imuFieldAccelY = 3
	imuFieldAccelZ = 5
	imuFieldTemp   = 7
	imuFieldGyroX  = 9
	imuFieldGyroY  = 11
	imuFieldGyroZ  = 13
)

// imuAccelScale returns the accelerometer LSB-per-g factor for the
// given full-scale range code (0 = ±2g up to 3 = ±16g).
func imuAccelScale(scale uint8) float32 {
	return 65536.0 / float32(uint32(4)<<scale)
}

// imuGyroScale returns the gyroscope LSB-per-(°/s) factor for the
// given full-scale range code (0 = ±250°/s up to 3 = ±2000°/s).
func imuGyroScale(scale uint8) float32 {
	return 65536.0 / float32(uint32(500)<<scale)
}

// imuState assembles IMU6 samples from the ordered byte fields carried
// on the event stream between a burst start and end marker.
type imuState struct {
	ignore  bool
	started bool

	count int
	tmp   uint8

	typ        uint8 // enabled-sensor bits
	accelScale float32
	gyroScale  float32

	flipX, flipY, flipZ bool

	sample aer.IMU6
}

func (m *imuState) start(tr *translator) {
	m.ignore = false
	m.started = true
	m.count = 0
	m.typ = 0
	m.sample = aer.IMU6{TS: aer.Timestamp(tr.ts.Current)}
}

func (m *imuState) byte(tr *translator, v uint8) {
	if m.ignore {
		return
	}
	if !m.started {
		tr.msg.Infof("davis: IMU data byte without a burst start, dropping")
		return
	}
	if m.count >= imuTotalCount {
		tr.msg.Infof("davis: IMU data byte beyond burst end, dropping")
		return
	}

	if m.count%2 == 0 {
		m.tmp = v
		m.count++
		return
	}

	val := int16(uint16(m.tmp)<<8 | uint16(v))
	switch m.count {
	case imuFieldAccelX:
		m.sample.AccelX = m.flipAccel(val, m.flipX)
	case imuFieldAccelY:
		m.sample.AccelY = m.flipAccel(val, m.flipY)
	case imuFieldAccelZ:
		m.sample.AccelZ = m.flipAccel(val, m.flipZ)
		// skip the fields of absent sensors.
		if m.typ&imuTypeTemp == 0 {
			if m.typ&imuTypeGyro != 0 {
				m.count += 2
			} else {
				m.count += 8
			}
		}
	case imuFieldTemp:
		m.sample.Temp = float32(val)/340.0 + 36.53
		if m.typ&imuTypeGyro == 0 {
			m.count += 6
		}
	case imuFieldGyroX:
		m.sample.GyroX = m.flipGyro(val, m.flipX)
	case imuFieldGyroY:
		m.sample.GyroY = m.flipGyro(val, m.flipY)
	case imuFieldGyroZ:
		m.sample.GyroZ = m.flipGyro(val, m.flipZ)
	}
	m.count++
}

func (m *imuState) end(tr *translator) {
	if m.ignore {
		return
	}
	if !m.started {
		tr.msg.Infof("davis: IMU burst end without a start, dropping")
		return
	}
	m.started = false

	if m.count != imuTotalCount {
		tr.msg.Infof("davis: incomplete IMU burst discarded (%d of %d fields)", m.count, imuTotalCount)
		return
	}
	tr.imuPacket().Append(m.sample)
}

// configure absorbs an in-stream type/scale configuration: gyro scale
// in bits 0-1, accel scale in bits 2-3, enabled sensors in bits 5-7.
// It arrives between a burst start and its data bytes, so it re-aims
// the live field counter at the first enabled sensor.
func (m *imuState) configure(tr *translator, v uint8) {
	if m.ignore {
		return
	}
	m.gyroScale = imuGyroScale(v & 0x03)
	m.accelScale = imuAccelScale((v >> 2) & 0x03)
	m.typ = (v >> 5) & 0x07

	switch {
	case m.typ&imuTypeAccel != 0:
		m.count = 0
	case m.typ&imuTypeTemp != 0:
		m.count = 6
	case m.typ&imuTypeGyro != 0:
		m.count = 8
	default:
		m.count = imuTotalCount
		tr.msg.Errorf("davis: IMU scale config with no sensors enabled")
	}
}

func (m *imuState) flipAccel(v int16, flip bool) float32 {
	f := float32(v) / m.accelScale
	if flip {
		f = -f
	}
	return f
}

func (m *imuState) flipGyro(v int16, flip bool) float32 {
	f := float32(v) / m.gyroScale
	if flip {
		f = -f
	}
	return f
}
