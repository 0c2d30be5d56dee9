// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command davis-daq starts a TDAQ server driving one DAVIS camera.
//
// The server takes the path to a YAML configuration file as its first
// positional argument:
//
//  device:
//    id: 1
//    dvs: 240x180
//    aps: 240x180
//  source:
//    path: ./capture.aer
//    chunk: 8192
//  registers:
//    addr: :8867
//  logs:
//    directory: ./logs
//
// Besides the TDAQ command plane, the server listens on the registers
// address for JSON read/write requests against the camera's
// configuration registers (see davis-ctl).
package main // import "github.com/go-aer/daq/cmd/davis-daq"

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/go-aer/daq/davis"
	"github.com/go-aer/daq/transport"
)

type logConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type deviceConfig struct {
	ID  int16  `yaml:"id"`
	DVS string `yaml:"dvs"`
	APS string `yaml:"aps"`
}

type sourceConfig struct {
	Path  string `yaml:"path"`
	Chunk int    `yaml:"chunk"`
}

type registersConfig struct {
	Addr string `yaml:"addr"`
}

type config struct {
	Device    deviceConfig    `yaml:"device"`
	Source    sourceConfig    `yaml:"source"`
	Registers registersConfig `yaml:"registers"`
	Logs      logConfig       `yaml:"logs"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	err = yaml.NewDecoder(f).Decode(&cfg)
	if err != nil {
		return cfg, err
	}
	if cfg.Device.ID == 0 {
		cfg.Device.ID = 1
	}
	if cfg.Device.DVS == "" {
		cfg.Device.DVS = "240x180"
	}
	if cfg.Device.APS == "" {
		cfg.Device.APS = cfg.Device.DVS
	}
	if cfg.Source.Chunk <= 0 {
		cfg.Source.Chunk = 8192
	}
	if cfg.Registers.Addr == "" {
		cfg.Registers.Addr = ":8867"
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
	return cfg, nil
}

func logWriter(cfg logConfig) (io.Writer, error) {
	if cfg.Directory == "" {
		return os.Stdout, nil
	}
	err := os.MkdirAll(cfg.Directory, 0o755)
	if err != nil {
		return nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, "davis-daq.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	return io.MultiWriter(os.Stdout, rotator), nil
}

func main() {
	log.SetPrefix("davis-daq: ")
	log.SetFlags(0)

	cmd := flags.New()
	if len(cmd.Args) == 0 {
		log.Fatalf("missing path to configuration file")
	}

	cfg, err := loadConfig(cmd.Args[0])
	if err != nil {
		log.Fatalf("could not load config %q: %+v", cmd.Args[0], err)
	}

	out, err := logWriter(cfg.Logs)
	if err != nil {
		log.Fatalf("could not set up logging: %+v", err)
	}

	bus, err := newBus(cfg.Device)
	if err != nil {
		log.Fatalf("could not set up register bus: %+v", err)
	}

	regSrv, err := newRegServer(cfg.Registers.Addr, bus)
	if err != nil {
		log.Fatalf("could not start register service: %+v", err)
	}
	defer regSrv.close()
	go regSrv.serve()

	dev := davis.NewServer(func(ctx tdaq.Context) (*davis.Device, error) {
		data, err := transport.NewReplay(cfg.Source.Path, cfg.Source.Chunk)
		if err != nil {
			return nil, err
		}
		return davis.Open(bus, data, cfg.Device.ID,
			davis.WithMsgStream(ctx.Msg),
		)
	})

	srv := tdaq.New(cmd, out)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.RunHandle(dev.Run)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func newBus(cfg deviceConfig) (*transport.RegisterMap, error) {
	var dvsX, dvsY, apsX, apsY uint16
	_, err := fmt.Sscanf(cfg.DVS, "%dx%d", &dvsX, &dvsY)
	if err != nil {
		return nil, fmt.Errorf("could not parse DVS geometry %q: %w", cfg.DVS, err)
	}
	_, err = fmt.Sscanf(cfg.APS, "%dx%d", &apsX, &apsY)
	if err != nil {
		return nil, fmt.Errorf("could not parse APS geometry %q: %w", cfg.APS, err)
	}
	bus := transport.NewRegisterMap()
	davis.PrimeRegisters(bus, dvsX, dvsY, apsX, apsY)
	return bus, nil
}
