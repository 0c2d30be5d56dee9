// Copyright 2023 The go-aer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"

	"github.com/go-aer/daq/transport"
)

// Request is one register access from a davis-ctl client.
type Request struct {
	Name   string `json:"cmd"` // "read" or "write"
	Module uint8  `json:"module"`
	Param  uint8  `json:"param"`
	Value  uint32 `json:"value,omitempty"`
}

// Reply is the answer to one Request.
type Reply struct {
	Value uint32 `json:"value"`
	Err   string `json:"err,omitempty"`
}

type regServer struct {
	conn net.Listener
	bus  transport.RegisterBus
}

func newRegServer(addr string, bus transport.RegisterBus) (*regServer, error) {
	conn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %q: %w", addr, err)
	}
	return &regServer{conn: conn, bus: bus}, nil
}

func (srv *regServer) serve() {
	for {
		conn, err := srv.conn.Accept()
		if err != nil {
			return
		}
		go srv.handle(conn)
	}
}

func (srv *regServer) handle(conn net.Conn) {
	defer conn.Close()

	for {
		var (
			req Request
			err = json.NewDecoder(conn).Decode(&req)
		)
		if err != nil {
			return
		}
		switch req.Name {
		case "read":
			v, err := srv.bus.ReadRegister(req.Module, req.Param)
			if err != nil {
				_ = json.NewEncoder(conn).Encode(Reply{Err: err.Error()})
				continue
			}
			_ = json.NewEncoder(conn).Encode(Reply{Value: v})

		case "write":
			err := srv.bus.WriteRegister(req.Module, req.Param, req.Value)
			if err != nil {
				_ = json.NewEncoder(conn).Encode(Reply{Err: err.Error()})
				continue
			}
			_ = json.NewEncoder(conn).Encode(Reply{Value: req.Value})

		default:
			log.Printf("unknown command %q", req.Name)
			_ = json.NewEncoder(conn).Encode(Reply{Err: "unknown command"})
		}
	}
}

func (srv *regServer) close() {
	_ = srv.conn.Close()
}
