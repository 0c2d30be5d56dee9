// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// davis-dump decodes and displays raw AER capture files.
//
// Usage: davis-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//  $> davis-dump ./testdata/capture.aer
//  === container (events=1024) ===
//  polarity: t=      4611 x= 120 y=  90 on
//  polarity: t=      4612 x= 121 y=  90 off
//  special:  t=      5000 kind=ExternalInputRisingEdge
//  imu6:     t=      5120 accel=(0.012,-0.003,1.002) gyro=(0.122,0.003,-0.061) temp=36.53
//  [...]
package main // import "github.com/go-aer/daq/cmd/davis-dump"

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tlog "github.com/go-daq/tdaq/log"

	"github.com/go-aer/daq/aer"
	"github.com/go-aer/daq/davis"
	"github.com/go-aer/daq/mipicx3"
	"github.com/go-aer/daq/transport"
)

func main() {
	log.SetPrefix("davis-dump: ")
	log.SetFlags(0)

	var (
		variant = flag.String("variant", "davis", "stream variant (davis|mipicx3)")
		chunk   = flag.Int("chunk", 8192, "replay chunk size in bytes")
		geom    = flag.String("geom", "240x180", "sensor geometry for the davis variant (COLSxROWS)")
		idle    = flag.Duration("idle", 2*time.Second, "stop after that much time without data")
	)

	flag.Usage = func() {
		fmt.Printf(`davis-dump decodes and displays raw AER capture files.

Usage: davis-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> davis-dump ./testdata/capture.aer
 === container (events=1024) ===
 polarity: t=      4611 x= 120 y=  90 on
 polarity: t=      4612 x= 121 y=  90 off
 special:  t=      5000 kind=ExternalInputRisingEdge
 imu6:     t=      5120 accel=(0.012,-0.003,1.002) gyro=(0.122,0.003,-0.061) temp=36.53
 [...]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input capture file")
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, *variant, *chunk, *geom, *idle)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

type device interface {
	DataGet() *aer.Container
	Close() error
}

func process(w io.Writer, fname, variant string, chunk int, geom string, idle time.Duration) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	rp, err := transport.NewReplay(fname, chunk)
	if err != nil {
		return fmt.Errorf("could not open replay: %w", err)
	}
	defer rp.Close()

	msg := tlog.NewMsgStream("davis-dump", tlog.LvlWarning, os.Stderr)

	var dev device
	switch variant {
	case "davis":
		var dvsX, dvsY uint16
		_, err := fmt.Sscanf(geom, "%dx%d", &dvsX, &dvsY)
		if err != nil {
			return fmt.Errorf("could not parse geometry %q: %w", geom, err)
		}
		bus := transport.NewRegisterMap()
		davis.PrimeRegisters(bus, dvsX, dvsY, dvsX, dvsY)
		dvs, err := davis.Open(bus, rp, 1, davis.WithMsgStream(msg))
		if err != nil {
			return fmt.Errorf("could not open davis device: %w", err)
		}
		err = dvs.DataStart(context.Background())
		if err != nil {
			return fmt.Errorf("could not start acquisition: %w", err)
		}
		dev = dvs
	case "mipicx3":
		cx3 := mipicx3.Open(rp, 1, mipicx3.WithMsgStream(msg))
		err = cx3.DataStart(context.Background())
		if err != nil {
			return fmt.Errorf("could not start acquisition: %w", err)
		}
		dev = cx3
	default:
		return fmt.Errorf("unknown stream variant %q", variant)
	}
	defer dev.Close()

	last := time.Now()
	for {
		c := dev.DataGet()
		if c == nil {
			if time.Since(last) > idle {
				return nil
			}
			time.Sleep(1 * time.Millisecond)
			continue
		}
		last = time.Now()
		dump(wbuf, c)
	}
}

func dump(w io.Writer, c *aer.Container) {
	fmt.Fprintf(w, "=== container (events=%d) ===\n", c.EventCount())

	if pkt := c.Polarities(); pkt != nil {
		for _, ev := range pkt.Events() {
			pol := "off"
			if ev.On {
				pol = "on"
			}
			fmt.Fprintf(w, "polarity: t=% 10d x=% 4d y=% 4d %s\n",
				aer.FullTimestamp(pkt.TimeOverflow(), ev.TS), ev.X, ev.Y, pol,
			)
		}
	}
	if pkt := c.Specials(); pkt != nil {
		for _, ev := range pkt.Events() {
			fmt.Fprintf(w, "special:  t=% 10d kind=%v data=%d\n",
				aer.FullTimestamp(pkt.TimeOverflow(), ev.TS), ev.Kind, ev.Data,
			)
		}
	}
	if pkt := c.IMU6s(); pkt != nil {
		for _, ev := range pkt.Events() {
			fmt.Fprintf(w, "imu6:     t=% 10d accel=(%.3f,%.3f,%.3f) gyro=(%.3f,%.3f,%.3f) temp=%.2f\n",
				aer.FullTimestamp(pkt.TimeOverflow(), ev.TS),
				ev.AccelX, ev.AccelY, ev.AccelZ,
				ev.GyroX, ev.GyroY, ev.GyroZ,
				ev.Temp,
			)
		}
	}
	if pkt := c.Frames(); pkt != nil {
		for _, ev := range pkt.Events() {
			fmt.Fprintf(w, "frame:    t=% 10d %dx%d+%d+%d exposure=%d\n",
				aer.FullTimestamp(pkt.TimeOverflow(), ev.TSStartOfExposure),
				ev.Width, ev.Height, ev.PositionX, ev.PositionY, ev.Exposure,
			)
		}
	}
}
