// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/go-daq/tdaq/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/davis/internal/regs"
	"github.com/go-aer/daq/internal/containers"
	"github.com/go-aer/daq/internal/dvsnoise"
	"github.com/go-aer/daq/internal/exchange"
	"github.com/go-aer/daq/transport"
)

// Device is the host side of one DAVIS camera: it owns the register
// bus and the bulk data stream, runs the stream decoder and hands
// sealed containers to the consumer.
type Device struct {
	cfg  config
	msg  log.MsgStream
	bus  transport.RegisterBus
	data transport.DataStream
	info Info

	x       *exchange.Exchange
	running atomic.Bool
	master  atomic.Bool

	grp *errgroup.Group
}

// Open probes the camera's configuration registers and returns a
// device ready for acquisition.
func Open(bus transport.RegisterBus, data transport.DataStream, id int16, opts ...Option) (*Device, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := readInfo(bus, id)
	if err != nil {
		return nil, xerrors.Errorf("davis: could not probe device %d: %w", id, err)
	}

	dev := &Device{
		cfg:  cfg,
		msg:  cfg.msg,
		bus:  bus,
		data: data,
		info: info,
	}
	dev.master.Store(info.Master)
	dev.x = exchange.New(cfg.ringCapacity, cfg.notifyIncrease, cfg.notifyDecrease, cfg.msg)
	dev.x.SetBlocking(cfg.blocking)

	dev.msg.Infof("davis: opened device %d (chip=0x%x, logic=0x%x, dvs=%dx%d, aps=%dx%d, master=%v)",
		id, info.ChipID, info.LogicVersion,
		info.DVSSizeX, info.DVSSizeY, info.APSSizeX, info.APSSizeY, info.Master,
	)
	return dev, nil
}

// Info returns the device description read at open time. The master
// flag reflects the last refresh.
func (dev *Device) Info() Info {
	info := dev.info
	info.Master = dev.master.Load()
	return info
}

// DataStart begins acquisition: it starts the bulk stream and the
// decode goroutine feeding the exchange.
func (dev *Device) DataStart(ctx context.Context) error {
	if !dev.running.CompareAndSwap(false, true) {
		return xerrors.Errorf("davis: acquisition already running")
	}

	tr, err := dev.newTranslator()
	if err != nil {
		dev.running.Store(false)
		return err
	}

	ch, err := dev.data.StartStream()
	if err != nil {
		dev.running.Store(false)
		return xerrors.Errorf("davis: could not start data stream: %w", err)
	}

	grp, ctx := errgroup.WithContext(ctx)
	dev.grp = grp
	grp.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case buf, ok := <-ch:
				if !ok {
					tr.flush()
					return nil
				}
				tr.translate(buf)
			}
		}
	})

	dev.msg.Infof("davis: acquisition started")
	return nil
}

// DataStop ends acquisition: it clears the running flag, stops the
// bulk stream, waits for the decoder and drains undelivered
// containers (notifying the decrease callback for each).
func (dev *Device) DataStop() error {
	if !dev.running.CompareAndSwap(true, false) {
		return nil
	}

	err := dev.data.StopStream()
	if dev.grp != nil {
		gerr := dev.grp.Wait()
		if gerr != nil && !errors.Is(gerr, context.Canceled) && err == nil {
			err = gerr
		}
		dev.grp = nil
	}

	dev.x.Drain(nil)

	if err != nil {
		return xerrors.Errorf("davis: could not stop acquisition: %w", err)
	}
	dev.msg.Infof("davis: acquisition stopped")
	return nil
}

// DataGet polls the exchange for the next sealed container. It returns
// nil when none is pending.
func (dev *Device) DataGet() *aer.Container {
	return dev.x.Get()
}

// Pending returns the number of containers waiting in the exchange.
func (dev *Device) Pending() int { return dev.x.Len() }

// Close stops any running acquisition.
func (dev *Device) Close() error {
	return dev.DataStop()
}

func (dev *Device) newTranslator() (*translator, error) {
	tr := &translator{
		src:     dev.info.DeviceID,
		msg:     dev.msg,
		x:       dev.x,
		gen:     containers.NewGeneration(dev.cfg.maxPacketSize, dev.cfg.interval),
		running: dev.running.Load,
		onHotPixels: func(pixels []dvsnoise.Pixel) {
			// register writes stay off the producer path.
			go dev.pushHotPixels(pixels)
		},
		onTimestampReset: func() {
			go dev.refreshMasterSlave()
		},
	}

	tr.dvs.sizeX, tr.dvs.sizeY = dev.info.DVSSizeX, dev.info.DVSSizeY
	tr.dvs.invertXY = dev.info.DVSInvertXY
	if tr.dvs.invertXY {
		tr.dvs.sizeX, tr.dvs.sizeY = tr.dvs.sizeY, tr.dvs.sizeX
	}

	// both accumulators wait for their first Start marker.
	tr.aps.ignore = true
	tr.imu.ignore = true

	tr.aps.sizeX, tr.aps.sizeY = dev.info.APSSizeX, dev.info.APSSizeY
	tr.aps.flipX = dev.info.APSFlipX
	tr.aps.flipY = dev.info.APSFlipY
	tr.aps.invertXY = dev.info.APSInvertXY
	tr.aps.color = dev.info.APSColor
	tr.aps.globalShutter = dev.info.APSGlobalShutter
	if dev.info.APSSizeX > 0 && dev.info.APSSizeY > 0 {
		tr.aps.setROI(0, 0, dev.info.APSSizeX-1, dev.info.APSSizeY-1)
	}

	tr.imu.flipX = dev.info.IMUFlipX
	tr.imu.flipY = dev.info.IMUFlipY
	tr.imu.flipZ = dev.info.IMUFlipZ
	tr.imu.typ = imuTypeAccel | imuTypeGyro | imuTypeTemp
	accel, err := dev.bus.ReadRegister(regs.IMU, regs.IMUAccelFullScale)
	if err != nil {
		return nil, xerrors.Errorf("davis: could not read IMU accel full-scale: %w", err)
	}
	gyro, err := dev.bus.ReadRegister(regs.IMU, regs.IMUGyroFullScale)
	if err != nil {
		return nil, xerrors.Errorf("davis: could not read IMU gyro full-scale: %w", err)
	}
	tr.imu.accelScale = imuAccelScale(uint8(accel & 0x03))
	tr.imu.gyroScale = imuGyroScale(uint8(gyro & 0x03))

	if dev.cfg.autoTrain {
		tr.trainer = dvsnoise.NewTrainer(dev.cfg.autoTrainEvents)
	}

	return tr, nil
}

// refreshMasterSlave re-reads the device's master/slave flag. A
// timestamp reset can change it when cameras are synchronized in a
// chain.
func (dev *Device) refreshMasterSlave() {
	v, err := dev.bus.ReadRegister(regs.SysInfo, regs.SysInfoDeviceIsMaster)
	if err != nil {
		dev.msg.Errorf("davis: could not refresh master/slave flag: %+v", err)
		return
	}
	dev.master.Store(v != 0)
}
