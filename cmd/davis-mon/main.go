// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command davis-mon monitors a directory of camera recordings and
// raises an alert when a recording stops growing.
//
// Mail alerts are configured through the MAIL_USERNAME, MAIL_PASSWORD,
// MAIL_SERVER, MAIL_PORT and MAIL_TGTS environment variables.
package main // import "github.com/go-aer/daq/cmd/davis-mon"

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mail "gopkg.in/gomail.v2"
)

func main() {
	var (
		dir  = flag.String("dir", ".", "directory to monitor")
		glob = flag.String("glob", "davis_*.aer", "file pattern to monitor")
		freq = flag.Duration("freq", 30*time.Second, "probing interval")
	)

	flag.Parse()

	log.SetPrefix("davis-mon: ")
	log.SetFlags(0)

	mon := &monitor{
		dir:    *dir,
		glob:   *glob,
		freq:   *freq,
		alerts: make(map[string]int),
	}
	log.Printf("monitoring %q every %v...", filepath.Join(*dir, *glob), *freq)
	mon.run()
}

type monitor struct {
	dir  string
	glob string
	freq time.Duration

	alerts map[string]int // number of alerts raised per file
}

func (mon *monitor) run() {
	tick := time.NewTicker(mon.freq)
	defer tick.Stop()

	table := make(map[string]int64)
	for range tick.C {
		cur, err := mon.list()
		if err != nil {
			log.Printf("could not list files: %+v", err)
			continue
		}
		mon.compare(table, cur)
		table = cur
	}
}

func (mon *monitor) list() (map[string]int64, error) {
	table := make(map[string]int64)
	glob := filepath.Join(mon.dir, mon.glob)
	files, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("could not glob %q: %w", glob, err)
	}
	for _, fname := range files {
		fi, err := os.Stat(fname)
		if err != nil {
			return nil, fmt.Errorf("could not stat %q: %w", fname, err)
		}
		table[fname] = fi.Size()
	}
	return table, nil
}

func (mon *monitor) compare(ref, chk map[string]int64) {
	for fname := range chk {
		if _, ok := ref[fname]; !ok {
			// file just appeared.
			// nothing to compare against.
			continue
		}
		refsz := ref[fname]
		chksz := chk[fname]
		if refsz == chksz {
			// file didn't grow!
			mon.alert(fname, refsz)
		}
	}
}

func (mon *monitor) alert(fname string, size int64) {
	log.Printf("file %q didn't change in the last %v (size=%d bytes)",
		fname, mon.freq, size,
	)
	mon.alerts[fname]++

	const maxAlerts = 5
	if mon.alerts[fname] < maxAlerts {
		mon.alertMail(fname, size)
	}
}

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = strings.Split(os.Getenv("MAIL_TGTS"), ",")
)

func (mon *monitor) alertMail(fname string, size int64) {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 {
		log.Printf("could not send mail alert: missing credentials")
		return
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", alertMailUsr)
	msg.SetHeader("Bcc", alertMailTgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[davis-mon] file alert: %q", fname))
	msg.SetBody("text/plain", fmt.Sprintf("file: %q\nsize: %d bytes\nfreq: %v",
		fname, size, mon.freq,
	))

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	err := dial.DialAndSend(msg)
	if err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
