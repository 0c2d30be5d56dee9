// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package davis

import (
	"time"

	"github.com/go-daq/tdaq"
	"golang.org/x/xerrors"
)

// Server drives one Device from a TDAQ control plane.
type Server struct {
	open func(tdaq.Context) (*Device, error)
	dev  *Device
}

// NewServer returns a server around the given device factory. The
// factory runs on /init so the device can use the TDAQ log stream.
func NewServer(open func(tdaq.Context) (*Device, error)) *Server {
	return &Server{open: open}
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	if srv.dev != nil {
		ctx.Msg.Errorf("device already initialized")
		return xerrors.Errorf("davis: device already initialized")
	}
	dev, err := srv.open(ctx)
	if err != nil {
		ctx.Msg.Errorf("could not open device: %+v", err)
		return xerrors.Errorf("davis: could not open device: %w", err)
	}
	srv.dev = dev
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	if srv.dev == nil {
		return nil
	}
	err := srv.dev.Close()
	srv.dev = nil
	if err != nil {
		return xerrors.Errorf("davis: could not reset device: %w", err)
	}
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	if srv.dev == nil {
		ctx.Msg.Errorf("no device initialized")
		return xerrors.Errorf("davis: no device initialized")
	}
	err := srv.dev.DataStart(ctx.Ctx)
	if err != nil {
		ctx.Msg.Errorf("could not start acquisition: %+v", err)
		return xerrors.Errorf("davis: could not start acquisition: %w", err)
	}
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	if srv.dev == nil {
		return nil
	}
	err := srv.dev.DataStop()
	if err != nil {
		ctx.Msg.Errorf("could not stop acquisition: %+v", err)
		return xerrors.Errorf("davis: could not stop acquisition: %w", err)
	}
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	if srv.dev == nil {
		return nil
	}
	err := srv.dev.Close()
	srv.dev = nil
	if err != nil {
		return xerrors.Errorf("davis: could not close device: %w", err)
	}
	return nil
}

// Run is the acquisition loop of the TDAQ run handler: it polls the
// device for sealed containers and publishes a summary per container.
func (srv *Server) Run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
		}
		if srv.dev == nil || !srv.dev.running.Load() {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		c := srv.dev.DataGet()
		if c == nil {
			time.Sleep(1 * time.Millisecond)
			continue
		}
		ctx.Msg.Debugf("container: %d packets, %d events", c.Len(), c.EventCount())
	}
}
