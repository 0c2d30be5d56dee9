// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-daq/tdaq/log"
	"github.com/stretchr/testify/require"

	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/davis/internal/regs"
	"github.com/go-aer/daq/transport"
)

func testBus(t *testing.T) *transport.RegisterMap {
	t.Helper()
	bus := transport.NewRegisterMap()
	for _, reg := range []struct {
		mod, par uint8
		v        uint32
	}{
		{regs.SysInfo, regs.SysInfoLogicVersion, 18},
		{regs.SysInfo, regs.SysInfoChipIdentifier, 1},
		{regs.SysInfo, regs.SysInfoDeviceIsMaster, 1},
		{regs.DVS, regs.DVSSizeColumns, 240},
		{regs.DVS, regs.DVSSizeRows, 180},
		{regs.APS, regs.APSSizeColumns, 240},
		{regs.APS, regs.APSSizeRows, 180},
	} {
		err := bus.WriteRegister(reg.mod, reg.par, reg.v)
		require.NoError(t, err)
	}
	return bus
}

func testDevice(t *testing.T, bus *transport.RegisterMap, data transport.DataStream, opts ...Option) *Device {
	t.Helper()
	msg := log.NewMsgStream("davis-test", log.LvlError, os.Stderr)
	opts = append([]Option{WithMsgStream(msg)}, opts...)
	dev, err := Open(bus, data, 3, opts...)
	require.NoError(t, err)
	return dev
}

func waitContainer(t *testing.T, dev *Device) *aer.Container {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		if c := dev.DataGet(); c != nil {
			return c
		}
		select {
		case <-timeout:
			t.Fatalf("timeout waiting for a container")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestDeviceAcquisition(t *testing.T) {
	bus := testBus(t)
	pipe := transport.NewPipe(16)
	dev := testDevice(t, bus, pipe, WithMaxPacketSize(1))

	info := dev.Info()
	require.Equal(t, int16(3), info.DeviceID)
	require.Equal(t, uint16(240), info.DVSSizeX)
	require.Equal(t, uint16(180), info.DVSSizeY)
	require.True(t, info.Master)

	err := dev.DataStart(context.Background())
	require.NoError(t, err)
	require.Error(t, dev.DataStart(context.Background()))

	err = pipe.Feed(rawBuf(
		tsUnit(10),
		evUnit(codeYAddr, 1),
		evUnit(codeXAddrOn, 2),
	))
	require.NoError(t, err)

	c := waitContainer(t, dev)
	pol := c.Polarities()
	require.NotNil(t, pol)
	require.Equal(t, []aer.Polarity{{TS: 10, X: 2, Y: 1, On: true}}, pol.Events())

	err = dev.DataStop()
	require.NoError(t, err)
	require.Nil(t, dev.DataGet())
	require.NoError(t, dev.Close())
}

func TestDeviceAutoTrain(t *testing.T) {
	bus := testBus(t)
	pipe := transport.NewPipe(16)
	dev := testDevice(t, bus, pipe, WithMaxPacketSize(1), WithAutoTrain(1))

	err := dev.DataStart(context.Background())
	require.NoError(t, err)
	defer dev.Close()

	err = pipe.Feed(rawBuf(
		tsUnit(10),
		evUnit(codeYAddr, 7),
		evUnit(codeXAddrOn, 5),
	))
	require.NoError(t, err)

	c := waitContainer(t, dev)
	require.NotNil(t, c.Polarities())

	// training completes on the first committed packet; the hot pixel
	// lands in filter slot 0, remaining slots are parked out of range.
	require.Eventually(t, func() bool {
		row, err := bus.ReadRegister(regs.DVS, regs.DVSFilterPixel0Row)
		if err != nil {
			return false
		}
		col, err := bus.ReadRegister(regs.DVS, regs.DVSFilterPixel0Column)
		if err != nil {
			return false
		}
		return row == 7 && col == 5
	}, 5*time.Second, time.Millisecond)

	row, err := bus.ReadRegister(regs.DVS, regs.DVSFilterPixel0Row+2)
	require.NoError(t, err)
	require.Equal(t, uint32(180), row)
}

func TestOpenInvalidDevice(t *testing.T) {
	bus := transport.NewRegisterMap() // all registers zero
	pipe := transport.NewPipe(1)
	_, err := Open(bus, pipe, 0)
	require.Error(t, err)
}
