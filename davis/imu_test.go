// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"math"
	"testing"
)

// imuBurstUnits encodes a complete IMU burst from the seven 16-bit
// sensor words, high byte first. The scale configuration follows the
// start marker, as on the wire.
func imuBurstUnits(words [7]int16) []uint16 {
	units := []uint16{
		evUnit(codeSpecial, specialIMUStart),
		evUnit(codeMisc8, 3<<8|uint16(0x07)<<5),
	}
	for _, w := range words {
		units = append(units,
			evUnit(codeMisc8, uint16(w)>>8),
			evUnit(codeMisc8, uint16(w)&0xFF),
		)
	}
	units = append(units, evUnit(codeSpecial, specialIMUEnd))
	return units
}

func TestIMUBurst(t *testing.T) {
	tr := testTranslator(0, 0)

	units := []uint16{tsUnit(500)}
	units = append(units, imuBurstUnits([7]int16{
		16384,  // accelX: 1 g at ±2g full scale
		-16384, // accelY: -1 g
		8192,   // accelZ: 0.5 g
		0,      // temp: 36.53 °C
		131,    // gyroX: ~1 °/s at ±250°/s full scale
		-262,   // gyroY: ~-2 °/s
		0,      // gyroZ
	})...)
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	imu := c.IMU6s()
	if imu == nil || imu.Len() != 1 {
		t.Fatalf("no IMU sample emitted")
	}
	ev := imu.Events()[0]

	if got, want := ev.TS, int32(500); int32(got) != want {
		t.Fatalf("invalid timestamp: got=%d, want=%d", got, want)
	}
	for _, tc := range []struct {
		name string
		got  float32
		want float64
	}{
		{"accelX", ev.AccelX, 1},
		{"accelY", ev.AccelY, -1},
		{"accelZ", ev.AccelZ, 0.5},
		{"temp", ev.Temp, 36.53},
		{"gyroX", ev.GyroX, 131.0 / 131.072},
		{"gyroY", ev.GyroY, -262.0 / 131.072},
		{"gyroZ", ev.GyroZ, 0},
	} {
		if math.Abs(float64(tc.got)-tc.want) > 1e-3 {
			t.Errorf("invalid %s: got=%v, want=%v", tc.name, tc.got, tc.want)
		}
	}
}

func TestIMUAxisFlips(t *testing.T) {
	tr := testTranslator(0, 0)
	tr.imu.flipX = true
	tr.imu.flipZ = true

	units := imuBurstUnits([7]int16{16384, 16384, 16384, 0, 131, 131, 131})
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	ev := c.IMU6s().Events()[0]
	if ev.AccelX >= 0 || ev.AccelY <= 0 || ev.AccelZ >= 0 {
		t.Fatalf("invalid accel flips: %+v", ev)
	}
	if ev.GyroX >= 0 || ev.GyroY <= 0 || ev.GyroZ >= 0 {
		t.Fatalf("invalid gyro flips: %+v", ev)
	}
}

func TestIMUIncompleteBurstDiscarded(t *testing.T) {
	tr := testTranslator(0, 0)

	units := []uint16{
		evUnit(codeSpecial, specialIMUStart),
		evUnit(codeMisc8, 0x40),
		evUnit(codeMisc8, 0x00),
		// burst ends early.
		evUnit(codeSpecial, specialIMUEnd),
	}
	tr.translate(rawBuf(units...))
	tr.commit(false)

	if c := tr.x.Get(); c != nil && c.IMU6s() != nil {
		t.Fatalf("partial IMU burst emitted: %v", c.IMU6s().Events())
	}
}

func TestIMUByteWithoutStart(t *testing.T) {
	tr := testTranslator(0, 0)

	tr.translate(rawBuf(
		evUnit(codeMisc8, 0x40),
		evUnit(codeSpecial, specialIMUEnd),
	))
	tr.commit(false)

	if c := tr.x.Get(); c != nil && c.IMU6s() != nil {
		t.Fatalf("IMU sample emitted without a burst start: %v", c.IMU6s().Events())
	}
}

func TestIMUScaleConfig(t *testing.T) {
	tr := testTranslator(0, 0)

	// gyro scale 1 (±500°/s), accel scale 2 (±8g), temp+gyro only:
	// the field counter jumps straight to the temperature slot.
	cfgByte := uint16((imuTypeTemp|imuTypeGyro)<<5 | 2<<2 | 1)
	tr.translate(rawBuf(
		evUnit(codeSpecial, specialIMUStart),
		evUnit(codeMisc8, 3<<8|cfgByte),
	))

	if got, want := tr.imu.accelScale, imuAccelScale(2); got != want {
		t.Fatalf("invalid accel scale: got=%v, want=%v", got, want)
	}
	if got, want := tr.imu.gyroScale, imuGyroScale(1); got != want {
		t.Fatalf("invalid gyro scale: got=%v, want=%v", got, want)
	}
	if got, want := tr.imu.count, 6; got != want {
		t.Fatalf("invalid field count: got=%d, want=%d", got, want)
	}
}

func TestIMUScaleConfigNoSensors(t *testing.T) {
	tr := testTranslator(0, 0)

	units := []uint16{
		tsUnit(100),
		evUnit(codeSpecial, specialIMUStart),
		evUnit(codeMisc8, 3<<8), // no sensors enabled
		evUnit(codeMisc8, 0x40),
		evUnit(codeMisc8, 0x00),
		evUnit(codeSpecial, specialIMUEnd),
	}
	tr.translate(rawBuf(units...))
	tr.commit(false)

	if got, want := tr.imu.count, imuTotalCount; got != want {
		t.Fatalf("field counter not parked: got=%d, want=%d", got, want)
	}
	c := tr.x.Get()
	if c == nil || c.IMU6s() == nil {
		t.Fatalf("no container delivered")
	}
	ev := c.IMU6s().Events()[0]
	if ev.AccelX != 0 || ev.AccelY != 0 || ev.AccelZ != 0 ||
		ev.GyroX != 0 || ev.GyroY != 0 || ev.GyroZ != 0 {
		t.Fatalf("data bytes absorbed with no sensors enabled: %+v", ev)
	}
}

func TestIMUGyroOnlyBurst(t *testing.T) {
	tr := testTranslator(0, 0)

	// only the gyroscope enabled: fields start at the gyro position.
	cfgByte := uint16(imuTypeGyro) << 5
	units := []uint16{
		evUnit(codeSpecial, specialIMUStart),
		evUnit(codeMisc8, 3<<8|cfgByte),
	}
	for _, w := range []int16{131, 262, -131} {
		units = append(units,
			evUnit(codeMisc8, uint16(w)>>8),
			evUnit(codeMisc8, uint16(w)&0xFF),
		)
	}
	units = append(units, evUnit(codeSpecial, specialIMUEnd))
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	imu := c.IMU6s()
	if imu == nil || imu.Len() != 1 {
		t.Fatalf("no IMU sample emitted")
	}
	ev := imu.Events()[0]
	if ev.AccelX != 0 || ev.AccelY != 0 || ev.AccelZ != 0 {
		t.Fatalf("accel fields set in a gyro-only burst: %+v", ev)
	}
	if math.Abs(float64(ev.GyroX)-1) > 1e-3 || math.Abs(float64(ev.GyroY)-2) > 1e-3 {
		t.Fatalf("invalid gyro fields: %+v", ev)
	}
}

func TestIMUAccelOnlyBurst(t *testing.T) {
	tr := testTranslator(0, 0)

	cfgByte := uint16(imuTypeAccel) << 5
	units := []uint16{
		evUnit(codeSpecial, specialIMUStart),
		evUnit(codeMisc8, 3<<8|cfgByte),
	}
	for _, w := range []int16{16384, -16384, 16384} {
		units = append(units,
			evUnit(codeMisc8, uint16(w)>>8),
			evUnit(codeMisc8, uint16(w)&0xFF),
		)
	}
	units = append(units, evUnit(codeSpecial, specialIMUEnd))
	tr.translate(rawBuf(units...))
	tr.commit(false)

	c := tr.x.Get()
	if c == nil {
		t.Fatalf("no container delivered")
	}
	imu := c.IMU6s()
	if imu == nil || imu.Len() != 1 {
		t.Fatalf("no IMU sample emitted")
	}
	ev := imu.Events()[0]
	if ev.GyroX != 0 || ev.GyroY != 0 || ev.GyroZ != 0 || ev.Temp != 0 {
		t.Fatalf("gyro/temp fields set in an accel-only burst: %+v", ev)
	}
}
