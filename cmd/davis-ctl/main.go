// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command davis-ctl is an interactive shell over the register service
// of a running davis-daq.
//
// Example:
//
//  $> davis-ctl -addr localhost:8867
//  davis> read sysinfo 2
//  0x00000001
//  davis> write dvs 3 1
//  0x00000001
//  davis> quit
package main // import "github.com/go-aer/daq/cmd/davis-ctl"

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

// Request mirrors the davis-daq register service request.
type Request struct {
	Name   string `json:"cmd"`
	Module uint8  `json:"module"`
	Param  uint8  `json:"param"`
	Value  uint32 `json:"value,omitempty"`
}

// Reply mirrors the davis-daq register service reply.
type Reply struct {
	Value uint32 `json:"value"`
	Err   string `json:"err,omitempty"`
}

var modules = map[string]uint8{
	"mux":      0,
	"dvs":      1,
	"aps":      2,
	"imu":      3,
	"extinput": 4,
	"bias":     5,
	"sysinfo":  6,
	"usb":      9,
}

func main() {
	log.SetPrefix("davis-ctl: ")
	log.SetFlags(0)

	addr := flag.String("addr", "localhost:8867", "davis-daq register service address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("could not dial %q: %+v", *addr, err)
	}
	defer conn.Close()

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)
	term.SetCompleter(func(line string) []string {
		var out []string
		for _, cmd := range []string{"read ", "write ", "quit"} {
			if strings.HasPrefix(cmd, strings.ToLower(line)) {
				out = append(out, cmd)
			}
		}
		return out
	})

	for {
		line, err := term.Prompt("davis> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			log.Fatalf("could not read line: %+v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)
		if line == "quit" || line == "exit" {
			return
		}
		err = process(conn, line)
		if err != nil {
			log.Printf("%+v", err)
		}
	}
}

func process(conn net.Conn, line string) error {
	toks := strings.Fields(line)
	req := Request{Name: toks[0]}
	switch req.Name {
	case "read":
		if len(toks) != 3 {
			return fmt.Errorf("usage: read MODULE PARAM")
		}
	case "write":
		if len(toks) != 4 {
			return fmt.Errorf("usage: write MODULE PARAM VALUE")
		}
		v, err := strconv.ParseUint(toks[3], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", toks[3], err)
		}
		req.Value = uint32(v)
	default:
		return fmt.Errorf("unknown command %q", req.Name)
	}

	mod, err := module(toks[1])
	if err != nil {
		return err
	}
	par, err := strconv.ParseUint(toks[2], 0, 8)
	if err != nil {
		return fmt.Errorf("invalid parameter %q: %w", toks[2], err)
	}
	req.Module = mod
	req.Param = uint8(par)

	err = json.NewEncoder(conn).Encode(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	var rep Reply
	err = json.NewDecoder(conn).Decode(&rep)
	if err != nil {
		return fmt.Errorf("could not decode reply: %w", err)
	}
	if rep.Err != "" {
		return fmt.Errorf("remote error: %s", rep.Err)
	}
	fmt.Printf("0x%08x\n", rep.Value)
	return nil
}

func module(name string) (uint8, error) {
	if mod, ok := modules[strings.ToLower(name)]; ok {
		return mod, nil
	}
	v, err := strconv.ParseUint(name, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown module %q", name)
	}
	return uint8(v), nil
}
