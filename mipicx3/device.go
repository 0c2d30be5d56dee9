// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mipicx3

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/go-daq/tdaq/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/internal/containers"
	"github.com/go-aer/daq/internal/exchange"
	"github.com/go-aer/daq/transport"
)

// Device is the host side of one CX3-bridged DVS sensor.
type Device struct {
	cfg  config
	msg  log.MsgStream
	data transport.DataStream
	id   int16

	x       *exchange.Exchange
	running atomic.Bool

	grp *errgroup.Group
}

// Open returns a device ready for acquisition.
func Open(data transport.DataStream, id int16, opts ...Option) *Device {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dev := &Device{
		cfg:  cfg,
		msg:  cfg.msg,
		data: data,
		id:   id,
	}
	dev.x = exchange.New(cfg.ringCapacity, nil, nil, cfg.msg)
	dev.x.SetBlocking(cfg.blocking)
	return dev
}

// DataStart begins acquisition.
func (dev *Device) DataStart(ctx context.Context) error {
	if !dev.running.CompareAndSwap(false, true) {
		return xerrors.Errorf("mipicx3: acquisition already running")
	}

	tr := &translator{
		src:     dev.id,
		msg:     dev.msg,
		x:       dev.x,
		gen:     containers.NewGeneration(dev.cfg.maxPacketSize, dev.cfg.interval),
		running: dev.running.Load,
	}

	ch, err := dev.data.StartStream()
	if err != nil {
		dev.running.Store(false)
		return xerrors.Errorf("mipicx3: could not start data stream: %w", err)
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

	dev.msg.Infof("mipicx3: acquisition started")
	return nil
}

// DataStop ends acquisition and drains undelivered containers.
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
		return xerrors.Errorf("mipicx3: could not stop acquisition: %w", err)
	}
	dev.msg.Infof("mipicx3: acquisition stopped")
	return nil
}

// DataGet polls for the next sealed container, nil when none is
// pending.
func (dev *Device) DataGet() *aer.Container {
	return dev.x.Get()
}

// Close stops any running acquisition.
func (dev *Device) Close() error {
	return dev.DataStop()
}
